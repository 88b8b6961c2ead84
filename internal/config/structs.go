//nolint:lll
package config

// Config is the complete droste configuration. Values come from defaults,
// a droste.yaml file, DROSTE_* environment variables and command-line flags,
// in increasing order of precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Canvas    CanvasConfig    `mapstructure:"canvas" yaml:"canvas" json:"canvas"`
	Scene     SceneConfig     `mapstructure:"scene" yaml:"scene" json:"scene"`
	Animation AnimationConfig `mapstructure:"animation" yaml:"animation" json:"animation"`
	Render    RenderConfig    `mapstructure:"render" yaml:"render" json:"render"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache" json:"cache"`
}

// CanvasConfig is the rendering surface in pixels.
type CanvasConfig struct {
	Width  int `mapstructure:"width" yaml:"width" json:"width"`
	Height int `mapstructure:"height" yaml:"height" json:"height"`
}

// SceneConfig holds the initial quadrilateral and nesting depth.
type SceneConfig struct {
	// Points are x0,y0,...,x3,y3 as fractions of the canvas size.
	Points []float64 `mapstructure:"points" yaml:"points" json:"points"`
	Depth  int       `mapstructure:"depth" yaml:"depth" json:"depth"`
}

// AnimationConfig controls the zoom loop.
type AnimationConfig struct {
	Mode string  `mapstructure:"mode" yaml:"mode" json:"mode"`
	Step float64 `mapstructure:"step" yaml:"step" json:"step"`
	FPS  int     `mapstructure:"fps" yaml:"fps" json:"fps"`
}

// RenderConfig controls rasterization.
type RenderConfig struct {
	MaxPixels  int    `mapstructure:"max_pixels" yaml:"max_pixels" json:"max_pixels"`
	Workers    int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Overlay    bool   `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
	Background string `mapstructure:"background" yaml:"background" json:"background"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	FrameIntervalMS int    `mapstructure:"frame_interval_ms" yaml:"frame_interval_ms" json:"frame_interval_ms"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	// RequestsPerMinute limits each client on the compute endpoints; 0 disables it.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
}

// CacheConfig sizes the composed-stack LRU.
type CacheConfig struct {
	StackCacheSize int `mapstructure:"stack_cache_size" yaml:"stack_cache_size" json:"stack_cache_size"`
}
