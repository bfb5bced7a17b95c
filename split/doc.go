// Package split divides document bodies into chapters.
//
// A content detector picks one of three splitters: prose packs paragraphs
// up to a token ceiling, markup cuts at markdown headings, and normative
// cuts at article/section markers. All splitters preserve character
// offsets into the original body, so chapters concatenate back to the
// logical content. The Cutter further divides chapter text into
// embedding-sized pieces.
package split
