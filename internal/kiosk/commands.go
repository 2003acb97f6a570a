package kiosk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kioskhub/kiosk-gateway/internal/analytics"
	"github.com/kioskhub/kiosk-gateway/internal/translate"
)

// InsightsProvider supplies aggregated usage insights for the insights
// command. The analytics store implements it.
type InsightsProvider interface {
	Insights(days int) (*analytics.Insights, error)
}

// SetInsights attaches an insights provider. Without one the insights
// command reports that analytics are disabled.
func (o *Orchestrator) SetInsights(p InsightsProvider) {
	o.insights = p
}

const helpText = `Available commands:
  help      Show this help
  stats     Show session statistics
  lang XX   Change language (e.g. lang es)
  clear     Start a fresh session
  health    Show model health
  models    List configured models
  cache     Show cache statistics
  insights  Show usage insights
  exit      End the session

Anything else is answered as a question.`

// HandleCommand interprets kiosk control commands. It returns the reply
// and true when the input was a command, or a zero reply and false when
// the input should be processed as a question.
func (o *Orchestrator) HandleCommand(sessionID, input string) (Reply, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return Reply{}, false
	}

	sess := o.Session(sessionID)
	reply := Reply{SessionID: sess.ID}

	switch fields[0] {
	case "help":
		reply.Text = helpText

	case "stats":
		reply.Text = fmt.Sprintf(
			"Session %s\nQuestions asked: %d\nAverage response time: %.2fs\nErrors: %d\nLanguage: %s",
			sess.ID, sess.QuestionsCount, sess.AvgResponseTime().Seconds(), sess.Errors, sess.Language)

	case "lang":
		if len(fields) < 2 {
			reply.Text = "Usage: lang XX (supported: " + strings.Join(translate.SupportedLanguages, ", ") + ")"
			break
		}
		if !o.SetLanguage(sess.ID, fields[1]) {
			reply.Text = fmt.Sprintf("Language %q is not supported. Supported: %s",
				fields[1], strings.Join(translate.SupportedLanguages, ", "))
			break
		}
		reply.Text = "Language changed to " + fields[1] + "."

	case "clear", "reset", "new":
		o.finalize(sess)
		fresh := o.registry.Create(sess.Language)
		reply.SessionID = fresh.ID
		reply.Text = "Started a fresh session. How can I help you?"

	case "health":
		reply.Text = o.healthText()

	case "models":
		keys := o.dispatcher.Keys()
		reply.Text = "Configured models:\n  " + strings.Join(keys, "\n  ")

	case "cache":
		stats := o.cache.Stats()
		reply.Text = fmt.Sprintf("Cache entries: %d\nTotal hits: %d\nHit rate: %.2f",
			stats.Size, stats.TotalHits, stats.HitRate)

	case "insights":
		reply.Text = o.insightsText()

	case "exit", "quit", "bye":
		o.finalize(sess)
		reply.Text = "Thank you for using the information kiosk. Goodbye!"

	default:
		return Reply{}, false
	}

	return reply, true
}

func (o *Orchestrator) healthText() string {
	statuses := o.dispatcher.Health()
	if len(statuses) == 0 {
		return "No models configured."
	}

	keys := make([]string, 0, len(statuses))
	for key := range statuses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Model health:\n")
	for _, key := range keys {
		if err := statuses[key]; err != nil {
			fmt.Fprintf(&b, "  %s: unhealthy (%v)\n", key, err)
		} else {
			fmt.Fprintf(&b, "  %s: healthy\n", key)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (o *Orchestrator) insightsText() string {
	if o.insights == nil {
		return "Analytics are disabled."
	}
	report, err := o.insights.Insights(7)
	if err != nil {
		o.logger.Warn("Failed to compute insights", "error", err)
		return "Insights are unavailable right now."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Usage insights (last %d days):\n", report.ReportPeriodDays)
	fmt.Fprintf(&b, "  Sessions: %d\n", report.SessionStats.TotalSessions)
	fmt.Fprintf(&b, "  Avg questions per session: %.1f\n", report.SessionStats.AvgQuestionsPerSession)
	fmt.Fprintf(&b, "  Avg response time: %.2fs\n", report.SessionStats.AvgResponseTime)
	if len(report.PopularQuestions) > 0 {
		b.WriteString("  Popular questions:\n")
		for _, pq := range report.PopularQuestions {
			fmt.Fprintf(&b, "    %dx %s\n", pq.Frequency, pq.Question)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
