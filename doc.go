// Package resp encodes a structured value model to RESP (the Redis
// serialization protocol) text and decodes it back against a caller-supplied
// Shape.
//
// Frames:
//
//	+<text>\r\n         simple string
//	-<text>\r\n         error
//	:<int>\r\n          integer
//	$<len>\r\n<data>\r\n bulk string ($-1 is null)
//	*<n>\r\n<frames>    array
//
// Canonical mapping:
//
//	bool            :0 / :1
//	ints            :<n>
//	float, char     simple string (bulk if it contains CR or LF)
//	text            simple string, or bulk when it contains CR or LF
//	bytes           bulk string
//	None / Some(v)  [] / [v]
//	unit            $-1
//	unit variant    the variant name
//	other variants  [name, payload]
//	tuple, list     [v0, v1, ...]
//	map             [[k0, v0], [k1, v1], ...]
//	record          [[field0, v0], ...]
//
// RESP cannot tell an integer meant as a float from one meant as an int, or
// a list from a tuple, so decoding is always driven by a Shape: Decode reads
// exactly the frames the Shape asks for. Marshal and Unmarshal derive the
// Shape from a Go type via reflection.
package resp
