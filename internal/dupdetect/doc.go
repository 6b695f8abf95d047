// Package dupdetect finds recent reports near a candidate submission.
//
// Detection is advisory: the server attaches nearby matches to the
// submission response but never rejects a report because of them. The
// database prefilter uses an S2 cap's bounding rectangle so the index on
// (latitude, longitude) can narrow the scan, then the exact haversine
// distance decides membership.
package dupdetect
