package presenter

import (
	"fmt"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/application/query"
	"github.com/sinovhub/sinov-test-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS PRESENTER
// Renders statistics views: per-test breakdown, personal lists and the
// admin overview.
// ══════════════════════════════════════════════════════════════════════════════

// StatsPresenter renders statistics messages.
type StatsPresenter struct{}

// NewStatsPresenter creates a StatsPresenter.
func NewStatsPresenter() *StatsPresenter {
	return &StatsPresenter{}
}

// TestStats renders the statistics view of a single test.
// While the test is active only the submission count is shown; the full
// breakdown opens after the test ends.
func (p *StatsPresenter) TestStats(view *query.TestStats) string {
	test := view.Test

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Test statistikasi</b>\n\n")
	fmt.Fprintf(&b, "🔑 Kod: <code>%s</code>\n", test.Code)
	fmt.Fprintf(&b, "❓ Savollar soni: %d\n", test.TotalQuestions())
	fmt.Fprintf(&b, "📅 Yaratilgan: %s\n", timeutil.FormatDateTime(test.CreatedAt))

	if test.IsActive {
		fmt.Fprintf(&b, "🟢 Holat: faol\n\n")
		fmt.Fprintf(&b, "👥 Javob topshirganlar: <b>%d</b>\n\n", view.SubmissionCount)
		b.WriteString("<i>To'liq statistika test yakunlangach ochiladi.</i>")
		return b.String()
	}

	fmt.Fprintf(&b, "🔴 Holat: yakunlangan")
	if test.EndedAt != nil {
		fmt.Fprintf(&b, " (%s)", timeutil.FormatDateTime(*test.EndedAt))
	}
	fmt.Fprintf(&b, "\n👥 Javob topshirganlar: <b>%d</b>\n", view.SubmissionCount)

	stats := view.Full
	if stats == nil || stats.TotalSubmissions == 0 {
		b.WriteString("\n<i>Hech kim javob topshirmagan.</i>")
		return b.String()
	}

	b.WriteString("\n<b>Savollar bo'yicha:</b>\n")
	for _, q := range stats.Questions {
		fmt.Fprintf(&b, "%d-savol: %d ta to'g'ri (%.1f%%)\n",
			q.Number, q.CorrectCount, q.Percentage)
	}

	if stats.Easiest != nil {
		fmt.Fprintf(&b, "\n🟢 Eng oson savol: <b>%d</b>\n", *stats.Easiest)
	}
	if stats.Hardest != nil {
		fmt.Fprintf(&b, "🔴 Eng qiyin savol: <b>%d</b>\n", *stats.Hardest)
	}

	// Top 10 keeps the message inside Telegram's size limit.
	b.WriteString("\n<b>🏆 Reyting:</b>\n")
	shown := len(stats.Leaderboard)
	if shown > leaderboardLimit {
		shown = leaderboardLimit
	}
	for i, entry := range stats.Leaderboard[:shown] {
		fmt.Fprintf(&b, "%s %s — %d/%d (%.1f%%)\n",
			rankMedal(i+1),
			EscapeHTML(entry.DisplayName),
			entry.CorrectCount, entry.TotalCount, entry.Percentage)
	}
	if rest := len(stats.Leaderboard) - shown; rest > 0 {
		fmt.Fprintf(&b, "... va yana %d ta ishtirokchi\n", rest)
	}

	return b.String()
}

// leaderboardLimit is the number of leaderboard rows shown in a stats message.
const leaderboardLimit = 10

// TestEnded renders the confirmation after finishing a test.
func (p *StatsPresenter) TestEnded(res *command.EndTestResult) string {
	return fmt.Sprintf(
		"🏁 <b>Test yakunlandi!</b>\n\n"+
			"🔑 Kod: <code>%s</code>\n\n"+
			"Endi yangi javoblar qabul qilinmaydi.\n"+
			"To'liq statistikani /stats %s orqali ko'ring.",
		res.Test.Code, res.Test.Code,
	)
}

// MyTests renders the creator's test list.
func (p *StatsPresenter) MyTests(tests []query.CreatedTest) string {
	if len(tests) == 0 {
		return "📋 Siz hali test yaratmagansiz.\n\n" +
			"\"📝 Test yaratish\" tugmasi orqali birinchi testingizni yarating."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Mening testlarim</b> (%d)\n\n", len(tests))
	for _, t := range tests {
		status := "🟢"
		if !t.Test.IsActive {
			status = "🔴"
		}
		fmt.Fprintf(&b, "%s <code>%s</code> — %d savol, %d javob, %s\n",
			status, t.Test.Code, t.Test.TotalQuestions(),
			t.SubmissionCount, timeutil.FormatDate(t.Test.CreatedAt))
	}
	b.WriteString("\nBatafsil: /stats [kod]")
	return b.String()
}

// MyResults renders the respondent's submission history.
func (p *StatsPresenter) MyResults(results []query.SolvedTest) string {
	if len(results) == 0 {
		return "🎯 Siz hali birorta test yechmagansiz.\n\n" +
			"\"✍️ Test yechish\" tugmasi orqali boshlang."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 <b>Mening natijalarim</b> (%d)\n\n", len(results))
	for _, r := range results {
		sub := r.Submission
		code := "—"
		if r.Test != nil {
			code = string(r.Test.Code)
		}
		fmt.Fprintf(&b, "%s <code>%s</code> — %d/%d (%.1f%%), %s\n",
			ScoreEmoji(sub.Percentage()), code,
			sub.CorrectCount, sub.TotalCount, sub.Percentage(),
			timeutil.FormatDate(sub.SubmittedAt))
	}
	return b.String()
}

// AdminOverview renders the admin panel snapshot.
func (p *StatsPresenter) AdminOverview(view *query.AdminOverview) string {
	var b strings.Builder
	b.WriteString("🛠 <b>Admin panel</b>\n\n")
	fmt.Fprintf(&b, "👥 Foydalanuvchilar: <b>%d</b>\n", view.TotalUsers)
	fmt.Fprintf(&b, "📝 Testlar: <b>%d</b> (faol: %d)\n", view.TotalTests, view.ActiveTests)
	fmt.Fprintf(&b, "📢 Majburiy kanallar: <b>%d</b>\n", view.ChannelCount)

	if len(view.RecentUsers) > 0 {
		b.WriteString("\n<b>Yangi foydalanuvchilar:</b>\n")
		for _, u := range view.RecentUsers {
			fmt.Fprintf(&b, "• %s — %s\n",
				EscapeHTML(u.DisplayName()), timeutil.FormatDate(u.CreatedAt))
		}
	}

	if len(view.RecentTests) > 0 {
		b.WriteString("\n<b>So'nggi testlar:</b>\n")
		for _, t := range view.RecentTests {
			status := "🟢"
			if !t.IsActive {
				status = "🔴"
			}
			fmt.Fprintf(&b, "%s <code>%s</code> — %s\n",
				status, t.Code, timeutil.FormatDate(t.CreatedAt))
		}
	}

	return b.String()
}

// ChannelList renders the mandatory channel list for the admin panel.
func (p *StatsPresenter) ChannelList(count int) string {
	if count == 0 {
		return "📢 Majburiy kanallar ro'yxati bo'sh."
	}
	return fmt.Sprintf(
		"📢 <b>Majburiy kanallar</b> (%d)\n\n"+
			"O'chirish uchun kanal tugmasini bosing.", count)
}

// BroadcastReport renders the delivery report of a broadcast.
func (p *StatsPresenter) BroadcastReport(res *command.BroadcastResult) string {
	return fmt.Sprintf(
		"📣 <b>Xabar yuborildi</b>\n\n"+
			"✅ Yetkazildi: %d\n"+
			"❌ Yetkazilmadi: %d",
		res.Delivered, res.Failed,
	)
}

// rankMedal returns a medal for the top three places, a number otherwise.
func rankMedal(place int) string {
	switch place {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", place)
	}
}
