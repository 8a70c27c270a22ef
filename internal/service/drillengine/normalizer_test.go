package drillengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNormalizeClueValue_DoublesPreChangeValues(t *testing.T) {
	// Эфиры строго до 26.11.2001 приводятся к современной шкале
	assert.Equal(t, 200, NormalizeClueValue(100, date(1997, time.March, 15)))
	assert.Equal(t, 1000, NormalizeClueValue(500, date(2001, time.November, 25)))
}

func TestNormalizeClueValue_KeepsModernValues(t *testing.T) {
	// Сама дата смены шкалы уже считается современной
	assert.Equal(t, 200, NormalizeClueValue(200, date(2001, time.November, 26)))
	assert.Equal(t, 2000, NormalizeClueValue(2000, date(2015, time.June, 1)))
}

func TestNormalizeClueValue_PassesThroughMissingData(t *testing.T) {
	// Отсутствующая стоимость или дата не трогаются
	assert.Equal(t, 0, NormalizeClueValue(0, date(1997, time.March, 15)))
	assert.Equal(t, 400, NormalizeClueValue(400, nil))
}
