package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"snakerooms/game"
)

// ErrInvalid 配置值不合法
var ErrInvalid = errors.New("invalid config")

// Config holds the application's configuration values.
type Config struct {
	Addr string // HTTP 监听地址

	CanvasWidth  int // 画布宽度（像素）
	CanvasHeight int // 画布高度（像素）
	CellSize     int // 每格像素，仅用于推导网格与前端显示

	TickInterval  time.Duration
	IdleExpiry    time.Duration // 房间空置多久后销毁
	InitialFruits int

	LogFile       string
	LogLevel      string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogStdout     bool

	WireCodec   string // json | msgpack
	DefaultRoom string // 启动时预创建的房间，空则不创建
	StaticDir   string
}

// Default 默认值：600x600 画布、20 像素格子、125ms Tick
func Default() Config {
	return Config{
		Addr:          ":3000",
		CanvasWidth:   600,
		CanvasHeight:  600,
		CellSize:      20,
		TickInterval:  125 * time.Millisecond,
		IdleExpiry:    30 * time.Second,
		InitialFruits: 3,
		LogFile:       "app.log",
		LogLevel:      "debug",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
		WireCodec:     "json",
		StaticDir:     "web",
	}
}

// Grid 由画布尺寸推导网格
func (c Config) Grid() game.Grid {
	return game.NewGrid(c.CanvasWidth, c.CanvasHeight, c.CellSize)
}

// Load 读取 envFile（不存在时忽略）与进程环境变量；非空的进程环境变量优先
func Load(envFile string) (Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	return parse(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

func parse(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	if port, ok := lookup("PORT"); ok && port != "" {
		cfg.Addr = ":" + port
	}
	p.strVar("SNAKE_ADDR", &cfg.Addr)
	p.intVar("SNAKE_CANVAS_WIDTH", &cfg.CanvasWidth)
	p.intVar("SNAKE_CANVAS_HEIGHT", &cfg.CanvasHeight)
	p.intVar("SNAKE_CELL_SIZE", &cfg.CellSize)
	p.millisVar("SNAKE_TICK_MS", &cfg.TickInterval)
	p.millisVar("SNAKE_IDLE_EXPIRY_MS", &cfg.IdleExpiry)
	p.intVar("SNAKE_INITIAL_FRUITS", &cfg.InitialFruits)
	p.strVar("SNAKE_LOG_FILE", &cfg.LogFile)
	p.strVar("SNAKE_LOG_LEVEL", &cfg.LogLevel)
	p.intVar("SNAKE_LOG_MAX_MB", &cfg.LogMaxSizeMB)
	p.intVar("SNAKE_LOG_MAX_BACKUPS", &cfg.LogMaxBackups)
	p.boolVar("SNAKE_LOG_STDOUT", &cfg.LogStdout)
	p.strVar("SNAKE_WIRE_CODEC", &cfg.WireCodec)
	p.strVar("SNAKE_DEFAULT_ROOM", &cfg.DefaultRoom)
	p.strVar("SNAKE_STATIC_DIR", &cfg.StaticDir)
	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, cfg.Validate()
}

// Validate 检查取值范围
func (c Config) Validate() error {
	switch {
	case c.CellSize <= 0:
		return fmt.Errorf("%w: cell size %d", ErrInvalid, c.CellSize)
	case c.CanvasWidth < c.CellSize || c.CanvasHeight < c.CellSize:
		return fmt.Errorf("%w: canvas %dx%d smaller than one cell", ErrInvalid, c.CanvasWidth, c.CanvasHeight)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick interval %v", ErrInvalid, c.TickInterval)
	case c.IdleExpiry <= 0:
		return fmt.Errorf("%w: idle expiry %v", ErrInvalid, c.IdleExpiry)
	case c.InitialFruits < 0:
		return fmt.Errorf("%w: initial fruits %d", ErrInvalid, c.InitialFruits)
	case c.WireCodec != "json" && c.WireCodec != "msgpack":
		return fmt.Errorf("%w: wire codec %q", ErrInvalid, c.WireCodec)
	}
	return nil
}

// parser 记录第一个解析错误，后续字段跳过
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) raw(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(key)
	return v, ok && v != ""
}

func (p *parser) strVar(key string, dst *string) {
	if v, ok := p.raw(key); ok {
		*dst = v
	}
}

func (p *parser) intVar(key string, dst *int) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s must be an integer: %v", ErrInvalid, key, err)
		return
	}
	*dst = n
}

func (p *parser) millisVar(key string, dst *time.Duration) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s must be milliseconds: %v", ErrInvalid, key, err)
		return
	}
	*dst = time.Duration(n) * time.Millisecond
}

func (p *parser) boolVar(key string, dst *bool) {
	v, ok := p.raw(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("%w: %s must be a boolean: %v", ErrInvalid, key, err)
		return
	}
	*dst = b
}
