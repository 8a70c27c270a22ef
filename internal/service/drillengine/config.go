package drillengine

// Константы таймингов по умолчанию (секунды)
const (
	DefaultMaxResponseTimeSec = 15.0 // Полное окно на ввод ответа
	DefaultMaxBuzzInTimeSec   = 5.0  // Окно на базз-ин, короче окна ответа
)

// Config содержит настройки движка тренировок.
// Тайминги измеряются на клиенте и передаются в движок как данные;
// серверных таймеров здесь нет.
type Config struct {
	// MaxResponseTimeSec — максимальное допустимое время ответа.
	// Значение вне [0, MaxResponseTimeSec] отклоняется как ошибка валидации.
	MaxResponseTimeSec float64

	// MaxBuzzInTimeSec — порог базз-ина. Ответ, пришедший позже порога
	// (или вовсе без времени), засчитывается как pass.
	MaxBuzzInTimeSec float64
}

// DefaultConfig возвращает конфигурацию движка по умолчанию
func DefaultConfig() *Config {
	return &Config{
		MaxResponseTimeSec: DefaultMaxResponseTimeSec,
		MaxBuzzInTimeSec:   DefaultMaxBuzzInTimeSec,
	}
}
