// Package audio provides looped track playback for Glowdeck.
//
// The Player interface is deliberately small: set a volume, start a named
// track on loop, stop. The real implementation decodes wav/ogg/mp3 files
// from a configured track directory and plays them through the default
// audio device via gopxl/beep.
//
// Mirroring the hardware driver policy, audio degrades rather than fails:
// when the audio device cannot be initialised (headless box, missing ALSA),
// the service runs with a no-op player that still validates track names so
// the HTTP surface behaves identically.
package audio
