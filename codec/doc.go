// Package codec persists text resources as origin descriptors and rebuilds
// them through a textres.Factory. Content is never serialized for the
// built-in origins, only the information needed to reopen them; resources
// backed by other sources are captured as their current text.
//
// Two encodings are provided:
//
//	enc := codec.NewBinaryEncoder(w)  // compact, tag-prefixed records
//	enc := codec.NewJSONEncoder(w)    // one JSON object per line (go-json)
//
// Both decoders return io.EOF at a clean record boundary, so a stream of
// records can be consumed in a loop.
package codec
