package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认模拟参数：20 TPS
const (
	DefaultTickPeriod = 50 * time.Millisecond
	DefaultThrust     = 0.2
	DefaultMaxSpeed   = 5.0
)

// Tuning 可在运行期热更新的模拟参数
type Tuning struct {
	TickPeriod time.Duration `yaml:"tickPeriod"`
	Thrust     float64       `yaml:"thrust"`
	MaxSpeed   float64       `yaml:"maxSpeed"`
}

// Physics 取出物理部分
func (t Tuning) Physics() Physics {
	return Physics{Thrust: t.Thrust, MaxSpeed: t.MaxSpeed}
}

func (t Tuning) Validate() error {
	if t.TickPeriod <= 0 {
		return fmt.Errorf("tickPeriod must be positive, got %v", t.TickPeriod)
	}
	if t.Thrust < 0 {
		return fmt.Errorf("thrust must not be negative, got %v", t.Thrust)
	}
	if t.MaxSpeed <= 0 {
		return fmt.Errorf("maxSpeed must be positive, got %v", t.MaxSpeed)
	}
	return nil
}

// LogConfig 日志文件滚动策略
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// SessionConfig 每个连接的资源限制
type SessionConfig struct {
	OutboxSize int     `yaml:"outboxSize"` // 出站队列容量，满了丢最旧
	InputRate  float64 `yaml:"inputRate"`  // 每秒允许的入站消息数
	InputBurst int     `yaml:"inputBurst"`
}

// Config 服务配置
type Config struct {
	Listen  string        `yaml:"listen"`
	Log     LogConfig     `yaml:"log"`
	Tuning  Tuning        `yaml:"tuning"`
	Session SessionConfig `yaml:"session"`
}

func DefaultConfig() Config {
	return Config{
		Listen: ":8080",
		Log: LogConfig{
			File:       "app.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Tuning: Tuning{
			TickPeriod: DefaultTickPeriod,
			Thrust:     DefaultThrust,
			MaxSpeed:   DefaultMaxSpeed,
		},
		Session: SessionConfig{
			OutboxSize: 64,
			InputRate:  120,
			InputBurst: 60,
		},
	}
}

// LoadConfig 在默认配置之上叠加 YAML 文件；path 为空时只用默认值
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}
	if c.Session.OutboxSize <= 0 {
		return fmt.Errorf("invalid session: outboxSize must be positive, got %d", c.Session.OutboxSize)
	}
	if c.Session.InputRate <= 0 || c.Session.InputBurst <= 0 {
		return fmt.Errorf("invalid session: inputRate and inputBurst must be positive")
	}
	return nil
}

// TuningStore 保存当前生效的参数，Tick 每次读取，管理接口原子替换
type TuningStore struct {
	cur atomic.Pointer[Tuning]
}

func NewTuningStore(t Tuning) *TuningStore {
	s := &TuningStore{}
	s.cur.Store(&t)
	return s
}

func (s *TuningStore) Load() Tuning {
	return *s.cur.Load()
}

// Store 校验后替换
func (s *TuningStore) Store(t Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.cur.Store(&t)
	return nil
}
