package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	Cycles             int64
	ArticlesFetched    int64
	DuplicatesFiltered int64
	ArticlesClustered  int64
	ClustersFound      int64
	NoiseArticles      int64
	FeedErrors         int64
	HeadlinesGenerated int64
	HeadlinesFailed    int64
	TelegramMessages   int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastCycleID   string
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

// CycleStats are the counts of one poll cycle.
type CycleStats struct {
	CycleID    string
	Fetched    int
	Duplicates int
	Clustered  int
	Clusters   int
	Noise      int
	FeedErrors int
}

func (m *Metrics) RecordCycle(s CycleStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Cycles++
	m.LastCycleID = s.CycleID
	m.ArticlesFetched += int64(s.Fetched)
	m.DuplicatesFiltered += int64(s.Duplicates)
	m.ArticlesClustered += int64(s.Clustered)
	m.ClustersFound += int64(s.Clusters)
	m.NoiseArticles += int64(s.Noise)
	m.FeedErrors += int64(s.FeedErrors)
}

func (m *Metrics) IncrementHeadlines(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.HeadlinesGenerated++
	} else {
		m.HeadlinesFailed++
	}
}

func (m *Metrics) IncrementTelegramMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TelegramMessages++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++
	m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"cycles":                     m.Cycles,
		"last_cycle_id":              m.LastCycleID,
		"articles_fetched":           m.ArticlesFetched,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"articles_clustered":         m.ArticlesClustered,
		"clusters_found":             m.ClustersFound,
		"noise_articles":             m.NoiseArticles,
		"feed_errors":                m.FeedErrors,
		"headlines_generated":        m.HeadlinesGenerated,
		"headlines_failed":           m.HeadlinesFailed,
		"telegram_messages_sent":     m.TelegramMessages,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
