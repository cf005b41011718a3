// Package compose draws captions onto meme images.
//
// [Engine.Render] is the whole operation: it copies the source image onto
// a fresh [Surface], wraps and positions the captions with package layout,
// and draws each line twice, first the outline in the stroke colour and
// then the fill on top.
//
// The engine keeps no state between renders. Calling Render twice with the
// same inputs produces pixel-identical surfaces, and any change to the
// image, text or style is handled by simply rendering again.
//
// Rendering before the source image is available fails with
// [ErrImageNotReady]. Font, colour and drawing failures are returned
// unchanged.
package compose
