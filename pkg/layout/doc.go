// Package layout computes where caption lines go on a meme.
//
// Layout is pure geometry: given the image size, the two captions, a font
// size and a [Measurer], [Compute] returns every line with its centre x and
// top y. Nothing is drawn here; package compose consumes the result.
//
// # Wrapping
//
// Captions are uppercased, split on whitespace and wrapped greedily: a word
// joins the current line when the line plus a space plus the word measures
// strictly less than the available width (image width minus [Margin]).
// A single word wider than that gets its own line and overflows.
//
// # Placement
//
// Lines advance by fontSize + [LineGap]. The top block starts [Margin]
// pixels from the top; the bottom block ends [Margin] pixels above the
// bottom edge. Captions that need more lines than fit simply run off the
// image; nothing is clamped.
package layout
