// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded clips to the output engine's rate and channel layout
// Package resample provides sample rate and channel layout conversion.
//
// Example:
//
//	samples := resample.Convert(clip, engine.Format())
package resample
