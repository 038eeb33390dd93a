// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Engine interface with malgo, oto, PortAudio and null backends
// Package output renders decoded clips on an output device.
//
// An Engine owns one device at a time and plays at most one Voice. Every
// voice is scaled by a shared Gain node before it reaches the device.
//
// Example:
//
//	eng, err := output.New("malgo", output.DefaultFormat(), logger)
//	gain := output.NewGain(1.0)
//	v := output.NewVoice(samples, gain)
//	err = eng.Connect(v)
//	<-v.Done()
//	eng.Disconnect(v)
package output
