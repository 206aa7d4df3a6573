package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
)

// TableNodeConfig table 节点的全局配置
// 在 main 中 Load 之后只读
var TableNodeConfig TableConfiguration

type BaseConfig struct {
	ID         string `mapstructure:"id"`
	ServerType string `mapstructure:"serverType"`
	MetricPort int    `mapstructure:"metricPort"`
}

type TableConfiguration struct {
	BaseConfig   `mapstructure:",squash"`
	DatabaseConf `mapstructure:"database"`
	JwtConf      `mapstructure:"jwt"`
	EtcdConf     `mapstructure:"etcd"`
	LogConf      `mapstructure:"log"`
	NatsConf     `mapstructure:"nats"`
	WsConf       `mapstructure:"ws"`
	GameConf     `mapstructure:"game"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type EtcdConf struct {
	Addrs       []string       `mapstructure:"addrs"`
	RWTimeout   int            `mapstructure:"rwTimeout"`
	DialTimeout int            `mapstructure:"dialTimeout"`
	Register    RegisterServer `mapstructure:"register"`
}

type RegisterServer struct {
	Addr    string `mapstructure:"addr"`
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Weight  int    `mapstructure:"weight"`
	Ttl     int    `mapstructure:"ttl"`
}

type JwtConf struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"`
}

type DatabaseConf struct {
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
}

type NatsConf struct {
	URL string `json:"url" mapstructure:"url"`
}

type WsConf struct {
	Addr string `mapstructure:"addr"`
}

// GameConf 游戏行为参数
type GameConf struct {
	BotFill          bool   `mapstructure:"botFill"`          // 人类加入后是否自动补满机器人
	BotDifficulty    string `mapstructure:"botDifficulty"`    // easy / medium / hard
	CallWindowMs     int    `mapstructure:"callWindowMs"`     // 出牌后的叫牌窗口（毫秒）
	TurnTimeoutSec   int    `mapstructure:"turnTimeoutSec"`   // 人类回合超时后按机器人兜底
	ShuffleSeed      string `mapstructure:"shuffleSeed"`      // 固定洗牌种子（空则按时间）
	ChatFlagKey      string `mapstructure:"chatFlagKey"`      // redis 中聊天开关的 key
	AnalyticsSubject string `mapstructure:"analyticsSubject"` // 分析事件的 nats subject
}

// Load 读取并解析配置文件，支持环境变量覆盖
func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	if err := v.Unmarshal(&TableNodeConfig); err != nil {
		return err
	}

	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		TableNodeConfig.ID = nodeID
	}
	if TableNodeConfig.ID == "" {
		return fmt.Errorf("配置缺少节点 ID（配置 id 或环境变量 NODE_ID）")
	}

	// 日志级别热更新
	v.WatchConfig()
	v.OnConfigChange(func(in fsnotify.Event) {
		var next TableConfiguration
		if err := v.Unmarshal(&next); err != nil {
			log.Warn("配置热更新解析失败: %v", err)
			return
		}
		if next.LogConf.Level != TableNodeConfig.LogConf.Level {
			TableNodeConfig.LogConf.Level = next.LogConf.Level
			log.SetLevel(next.LogConf.Level)
			log.Info("日志级别已更新: %s", next.LogConf.Level)
		}
	})

	return nil
}
