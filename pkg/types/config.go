// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FFmpegConfig locates the external encoder binaries. It is passed into the
// transcoder at construction time; nothing reads it from package state.
type FFmpegConfig struct {
	// Binary is the ffmpeg executable name or path (default "ffmpeg").
	Binary string `json:"binary" yaml:"binary"`

	// ProbeBinary is the ffprobe executable name or path (default "ffprobe").
	ProbeBinary string `json:"probe_binary" yaml:"probe_binary"`

	// Threads caps encoder threads; 0 lets ffmpeg decide.
	Threads int `json:"threads" yaml:"threads"`
}

// VideoConfig holds encoder settings for one video target format.
type VideoConfig struct {
	// Quality is the CRF value used when --quality is not given.
	Quality int `json:"quality" yaml:"quality"`

	// Preset is the x264 preset (MP4) or the VP9 deadline (WebM).
	Preset string `json:"preset" yaml:"preset"`

	// CPUUsed trades VP9 speed for quality (0-8). Ignored for MP4.
	CPUUsed int `json:"cpu_used" yaml:"cpu_used"`

	// AudioBitrate is passed to the audio encoder (e.g. "128k").
	AudioBitrate string `json:"audio_bitrate" yaml:"audio_bitrate"`
}

// ImageConfig holds encoder settings for the WebP target.
type ImageConfig struct {
	// Quality is the libwebp quality used when --quality is not given.
	Quality int `json:"quality" yaml:"quality"`

	// CompressionLevel is the libwebp effort level (0-6).
	CompressionLevel int `json:"compression_level" yaml:"compression_level"`
}

// ViewportConfig describes the emulated mobile device.
type ViewportConfig struct {
	Width     int     `json:"width" yaml:"width"`
	Height    int     `json:"height" yaml:"height"`
	Scale     float64 `json:"scale" yaml:"scale"`
	UserAgent string  `json:"user_agent" yaml:"user_agent"`
}

// CaptureConfig holds settings for the screenshot tool.
type CaptureConfig struct {
	Viewport ViewportConfig `json:"viewport" yaml:"viewport"`

	// OutputDir is where screenshots and videos are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `json:"navigation_timeout" yaml:"navigation_timeout"`

	// SettleDelay is waited after navigation before the still capture.
	SettleDelay time.Duration `json:"settle_delay" yaml:"settle_delay"`

	// ScrollDuration is the wall-clock length of the scroll-and-record loop.
	ScrollDuration time.Duration `json:"scroll_duration" yaml:"scroll_duration"`

	// ScrollInterval is slept after every loop tick, scrolled or not.
	ScrollInterval time.Duration `json:"scroll_interval" yaml:"scroll_interval"`

	// ScrollStep is the number of pixels advanced per tick.
	ScrollStep int `json:"scroll_step" yaml:"scroll_step"`

	// VideoFormat is the container of the re-encoded recording: mp4 or webm.
	VideoFormat string `json:"video_format" yaml:"video_format"`

	// FrameQuality is the JPEG quality of recorded screencast frames.
	FrameQuality int `json:"frame_quality" yaml:"frame_quality"`

	// Preflight issues an HTTP GET before navigating and fails the URL early
	// on a non-success status.
	Preflight bool `json:"preflight" yaml:"preflight"`

	// ChromePath overrides browser discovery when set.
	ChromePath string `json:"chrome_path" yaml:"chrome_path"`
}

// Config groups the settings of every tool. It is loaded once per invocation
// from defaults, the config file, and MEDIAKIT_* environment variables.
type Config struct {
	FFmpeg  FFmpegConfig  `json:"ffmpeg" yaml:"ffmpeg"`
	MP4     VideoConfig   `json:"mp4" yaml:"mp4"`
	WebM    VideoConfig   `json:"webm" yaml:"webm"`
	WebP    ImageConfig   `json:"webp" yaml:"webp"`
	Capture CaptureConfig `json:"capture" yaml:"capture"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		FFmpeg: FFmpegConfig{
			Binary:      "ffmpeg",
			ProbeBinary: "ffprobe",
		},
		MP4: VideoConfig{
			Quality:      23,
			Preset:       "medium",
			AudioBitrate: "128k",
		},
		WebM: VideoConfig{
			Quality:      31,
			Preset:       "good",
			CPUUsed:      4,
			AudioBitrate: "128k",
		},
		WebP: ImageConfig{
			Quality:          80,
			CompressionLevel: 4,
		},
		Capture: CaptureConfig{
			Viewport: ViewportConfig{
				Width:     390,
				Height:    844,
				Scale:     3,
				UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			},
			OutputDir:         "screenshots",
			NavigationTimeout: 30 * time.Second,
			SettleDelay:       500 * time.Millisecond,
			ScrollDuration:    15 * time.Second,
			ScrollInterval:    12 * time.Millisecond,
			ScrollStep:        5,
			VideoFormat:       "mp4",
			FrameQuality:      90,
		},
	}
}
