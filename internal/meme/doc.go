// Package meme implements the rendering pipeline: resolving the active image
// source, word-wrapping and bottom-anchoring the caption, compositing the
// watermark, and producing the PNG artifact that every export sink encodes.
package meme
