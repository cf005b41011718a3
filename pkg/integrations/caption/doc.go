// Package caption generates meme captions from a topic.
//
// Three [Generator] implementations exist:
//
//   - [GatewayClient]: any OpenAI-compatible chat completions endpoint
//     (the default, pointed at an AI gateway serving google/gemini-2.5-flash)
//   - [GeminiClient]: Google's Gemini API through the genai SDK
//   - [Static]: a fixed list of captions for offline use and tests
//
// All generators send the same prompts ([SystemPrompt], [UserPrompt]) and
// return the raw caption text. [Split] turns that text into the top and
// bottom lines of a meme.
package caption
