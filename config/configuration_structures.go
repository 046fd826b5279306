package config

type DatabaseConfig struct {
	Driver      string `yaml:"driver" env:"DB_DRIVER"`
	DSN         string `yaml:"dsn" env:"DB_DSN"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket" env:"S3_BUCKET"`
	Region   string `yaml:"region" env:"S3_REGION"`
	Endpoint string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Local    bool   `yaml:"local" env:"S3_LOCAL"`
}

// StorageConfig : выбор реализаций хранилищ
type StorageConfig struct {
	Metadata string `yaml:"metadata" env:"STORAGE_METADATA"` // sql | redis
	Content  string `yaml:"content" env:"STORAGE_CONTENT"`   // s3 | local
	LocalDir string `yaml:"local_dir" env:"STORAGE_LOCAL_DIR"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key" env:"JWT_SECRET_KEY"`
}

// DocumentsConfig : параметры жизненного цикла документов
type DocumentsConfig struct {
	LockTimeout   int               `yaml:"lock_timeout" env:"DOC_LOCK_TIMEOUT"`     // секунды
	MaxAge        int               `yaml:"max_age" env:"DOC_MAX_AGE"`               // часы, 0 отключает очистку
	SweepInterval int               `yaml:"sweep_interval" env:"DOC_SWEEP_INTERVAL"` // минуты
	MimeType      string            `yaml:"mime_type" env:"DOC_MIME_TYPE"`
	LoA           map[string]string `yaml:"loa"`
}

type SignAPIConfig struct {
	URL     string `yaml:"url" env:"SIGN_API_URL"`
	Timeout string `yaml:"timeout" env:"SIGN_API_TIMEOUT"`
}
