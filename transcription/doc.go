// Package transcription turns an uploaded audio blob into text.
//
// A request flows through four stages:
//
//   - Normalizer converts the upload to mono, 16 kHz, 16-bit PCM WAV with ffmpeg.
//   - ModelCache hands out the loaded model for a (model, precision, device) key,
//     loading it once and reusing it across requests.
//   - Runner drives the model's lazy segment sequence and joins the segment
//     texts, in order and without a separator, into the transcript.
//   - ScriptConverter optionally converts between Simplified and Traditional
//     Chinese, keeping the original text alongside.
//
// Concrete engines live in the fasterwhisper, whisper and openai subpackages.
package transcription
