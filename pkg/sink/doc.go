// Package sink encodes rendered memes into output formats.
//
// # Formats
//
//   - png: lossless raster, the default
//   - jpeg: lossy raster via imaging, smaller downloads
//   - pdf: single page vector document embedding the raster (tdewolff/canvas)
//   - json: the computed line layout, for debugging wrapping and placement
//
// Use [Encode] to dispatch on a [Format]:
//
//	data, err := sink.Encode(sink.FormatPNG, surface.Image(), surface.Layout())
//
// [DownloadName] produces the file name offered for downloads and
// [Thumbnail] the square previews used by the history views.
package sink
