// FILE: lixenwraith/logfile/benchmark_test.go
package logfile

import (
	"testing"
)

// BenchmarkLoggerInfo benchmarks the performance of standard Info logging
func BenchmarkLoggerInfo(b *testing.B) {
	logger, _ := createTestLogger(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "i", i)
	}
}

// BenchmarkLoggerJSON benchmarks the performance of JSON formatted logging
func BenchmarkLoggerJSON(b *testing.B) {
	cfg := testConfig(b)
	cfg.Format = "json"
	logger := newTestLogger(b, cfg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Log(LevelInfo, CategoryWeb, "benchmark message", nil, "i", i, "key", "value")
	}
}

// BenchmarkConcurrentLogging benchmarks the logger's performance under concurrent load
func BenchmarkConcurrentLogging(b *testing.B) {
	logger, _ := createTestLogger(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			logger.Info("concurrent", "i", i)
			i++
		}
	})
}

// BenchmarkSerializeTxt measures formatting alone
func BenchmarkSerializeTxt(b *testing.B) {
	s := newSerializer("txt", FlagDefault, defaultConfig.TimestampFormat)
	rec := sampleRecord()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.serialize(rec)
	}
}

func BenchmarkSerializeJSON(b *testing.B) {
	s := newSerializer("json", FlagDefault, defaultConfig.TimestampFormat)
	rec := sampleRecord()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.serialize(rec)
	}
}
