package presenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/application/command"
	"github.com/sinovhub/sinov-test-bot/internal/domain/quiz"
	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEXT PRESENTER
// All user-facing texts of the bot. HTML parse mode throughout.
// ══════════════════════════════════════════════════════════════════════════════

// TextPresenter renders messages for the bot's flows.
type TextPresenter struct{}

// NewTextPresenter creates a TextPresenter.
func NewTextPresenter() *TextPresenter {
	return &TextPresenter{}
}

// ─────────────────────────────────────────────────────────────────────────────
// START / HELP
// ─────────────────────────────────────────────────────────────────────────────

// Welcome renders the greeting after /start.
func (p *TextPresenter) Welcome(name string) string {
	return fmt.Sprintf(
		"Assalomu alaykum, <b>%s</b>! 👋\n\n"+
			"<b>Sinov Test Bot</b>ga xush kelibsiz.\n\n"+
			"Bu bot orqali siz:\n"+
			"• 📝 Javoblar kaliti asosida test yaratasiz\n"+
			"• ✍️ Kod orqali testlarni yechasiz\n"+
			"• 📊 Natijalar va statistikani ko'rasiz\n\n"+
			"Boshlash uchun quyidagi menyudan foydalaning 👇",
		EscapeHTML(name),
	)
}

// Help renders the /help message.
func (p *TextPresenter) Help() string {
	return "ℹ️ <b>Botdan foydalanish</b>\n\n" +
		"<b>Test yaratish:</b>\n" +
		"1. \"📝 Test yaratish\" tugmasini bosing\n" +
		"2. Javoblar kalitini yuboring (masalan: <code>abcdabcd</code>)\n" +
		"3. Bot sizga 6 belgili kod beradi\n" +
		"4. Kodni ishtirokchilarga ulashing\n\n" +
		"<b>Test yechish:</b>\n" +
		"1. \"✍️ Test yechish\" tugmasini bosing\n" +
		"2. Test kodini kiriting\n" +
		"3. Javoblaringizni bitta qator qilib yuboring\n\n" +
		"<b>Qoidalar:</b>\n" +
		"• Har bir testga faqat bir marta javob topshiriladi\n" +
		"• O'z testingizni yecha olmaysiz\n" +
		"• To'liq statistika test yakunlangach ochiladi\n\n" +
		"<b>Buyruqlar:</b>\n" +
		"/create — yangi test\n" +
		"/solve [kod] — test yechish\n" +
		"/stats [kod] — natijalar\n" +
		"/end [kod] — testni yakunlash\n" +
		"/mytests — mening testlarim\n" +
		"/myresults — mening natijalarim\n" +
		"/cancel — amalni bekor qilish"
}

// JoinPrompt renders the mandatory-channels message.
func (p *TextPresenter) JoinPrompt() string {
	return "🔒 <b>Botdan foydalanish uchun quyidagi kanallarga a'zo bo'ling:</b>\n\n" +
		"A'zo bo'lgach \"✅ A'zo bo'ldim\" tugmasini bosing."
}

// MembershipConfirmed renders the message after a successful re-check.
func (p *TextPresenter) MembershipConfirmed() string {
	return "✅ Rahmat! Endi botdan to'liq foydalanishingiz mumkin."
}

// ─────────────────────────────────────────────────────────────────────────────
// CREATE FLOW
// ─────────────────────────────────────────────────────────────────────────────

// AskAnswerKey prompts for the answer key.
func (p *TextPresenter) AskAnswerKey() string {
	return "📝 <b>Yangi test</b>\n\n" +
		"Javoblar kalitini bitta qator qilib yuboring.\n" +
		"Faqat harflar, masalan: <code>abcdabcdab</code>\n\n" +
		"Har bir harf bitta savolning to'g'ri javobi."
}

// TestCreated renders the success message with the shareable code.
func (p *TextPresenter) TestCreated(test *quiz.Test) string {
	return fmt.Sprintf(
		"✅ <b>Test yaratildi!</b>\n\n"+
			"🔑 Kod: <code>%s</code>\n"+
			"❓ Savollar soni: %d\n\n"+
			"Ishtirokchilar <b>/solve %s</b> buyrug'i orqali "+
			"yoki kodni kiritib testni yechishadi.\n\n"+
			"Test yakunlangach to'liq statistika ochiladi.",
		test.Code, test.TotalQuestions(), test.Code,
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// SOLVE FLOW
// ─────────────────────────────────────────────────────────────────────────────

// AskCode prompts for a test code.
func (p *TextPresenter) AskCode() string {
	return "✍️ <b>Test yechish</b>\n\n" +
		"Test kodini kiriting (6 belgi, masalan: <code>A1B2C3</code>)."
}

// AskStatsCode prompts for a code to show statistics for.
func (p *TextPresenter) AskStatsCode() string {
	return "📊 <b>Test natijalari</b>\n\n" +
		"Natijalarini ko'rmoqchi bo'lgan test kodini kiriting."
}

// AskEndCode prompts for a code of the test to finish.
func (p *TextPresenter) AskEndCode() string {
	return "🏁 <b>Testni yakunlash</b>\n\n" +
		"Yakunlamoqchi bo'lgan test kodini kiriting.\n" +
		"Yakunlangach yangi javoblar qabul qilinmaydi."
}

// AskAnswers prompts for the answer string of the bound test.
func (p *TextPresenter) AskAnswers(test *quiz.Test) string {
	return fmt.Sprintf(
		"✅ Test topildi: <code>%s</code>\n"+
			"❓ Savollar soni: <b>%d</b>\n\n"+
			"Javoblaringizni bitta qator qilib yuboring "+
			"(%d ta harf, masalan: <code>%s</code>).",
		test.Code, test.TotalQuestions(), test.TotalQuestions(),
		strings.Repeat("a", test.TotalQuestions()),
	)
}

// SubmissionResult renders the graded submission.
func (p *TextPresenter) SubmissionResult(res *command.SubmitAnswersResult) string {
	sub := res.Submission

	if res.AlreadySubmitted {
		return fmt.Sprintf(
			"⚠️ <b>Siz bu testni allaqachon yechgansiz.</b>\n\n"+
				"Avvalgi natijangiz: <b>%d/%d</b> (%.1f%%)",
			sub.CorrectCount, sub.TotalCount, sub.Percentage(),
		)
	}

	return fmt.Sprintf(
		"%s <b>Natijangiz:</b>\n\n"+
			"✅ To'g'ri javoblar: <b>%d/%d</b>\n"+
			"📊 Foiz: <b>%.1f%%</b>\n\n"+
			"Test: <code>%s</code>",
		ScoreEmoji(sub.Percentage()),
		sub.CorrectCount, sub.TotalCount, sub.Percentage(),
		res.Test.Code,
	)
}

// InlineInvitation renders the message body of an inline-shared test.
func (p *TextPresenter) InlineInvitation(test *quiz.Test) string {
	return fmt.Sprintf(
		"📝 <b>Sizni testga taklif qilishdi!</b>\n\n"+
			"🔑 Kod: <code>%s</code>\n"+
			"❓ Savollar soni: %d\n\n"+
			"Yechish uchun tugmani bosing 👇",
		test.Code, test.TotalQuestions(),
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// GENERIC FLOW MESSAGES
// ─────────────────────────────────────────────────────────────────────────────

// Cancelled confirms aborting a flow.
func (p *TextPresenter) Cancelled() string {
	return "✅ Amal bekor qilindi."
}

// NothingToCancel is shown when /cancel arrives with no active flow.
func (p *TextPresenter) NothingToCancel() string {
	return "ℹ️ Bekor qilinadigan amal yo'q."
}

// UnknownCommand lists the available commands.
func (p *TextPresenter) UnknownCommand() string {
	return "❓ Noma'lum buyruq.\n\n" +
		"Mavjud buyruqlar: /create, /solve, /stats, /end, " +
		"/mytests, /myresults, /help"
}

// UnknownInput is shown for free text outside any flow.
func (p *TextPresenter) UnknownInput() string {
	return "🤔 Tushunmadim. Quyidagi menyudan foydalaning yoki /help buyrug'ini yuboring."
}

// ─────────────────────────────────────────────────────────────────────────────
// ERROR MAPPING
// ─────────────────────────────────────────────────────────────────────────────

// ErrorText maps a domain error to a user-facing message.
// Unexpected errors get a generic apology; the caller logs the details.
func (p *TextPresenter) ErrorText(err error) string {
	switch {
	case errors.Is(err, shared.ErrTestNotFound):
		return "❌ Bunday kodli test topilmadi.\nKodni tekshirib, qaytadan urinib ko'ring."
	case errors.Is(err, shared.ErrAlreadyEnded):
		return "🏁 Bu test allaqachon yakunlangan va javob qabul qilmaydi."
	case errors.Is(err, shared.ErrSelfSubmission):
		return "🙅 O'zingiz yaratgan testni yecha olmaysiz."
	case errors.Is(err, shared.ErrAlreadySubmitted):
		return "⚠️ Siz bu testga allaqachon javob topshirgansiz."
	case errors.Is(err, shared.ErrAnswerLengthMismatch):
		return "📏 Javoblar soni test savollari soniga mos kelmadi.\nQaytadan urinib ko'ring."
	case errors.Is(err, shared.ErrInvalidFormat), errors.Is(err, shared.ErrEmptyValue):
		return "✏️ Noto'g'ri format. Faqat harflardan iborat qator yuboring."
	case errors.Is(err, shared.ErrUnauthorized):
		return "🔒 Bu amal uchun sizda huquq yo'q.\nTestni faqat uning egasi yoki admin yakunlay oladi."
	case errors.Is(err, shared.ErrChannelAlreadyExists):
		return "⚠️ Bu kanal allaqachon ro'yxatda."
	case errors.Is(err, shared.ErrChannelNotFound):
		return "❌ Bunday kanal ro'yxatda yo'q."
	case errors.Is(err, shared.ErrUserNotFound):
		return "❌ Foydalanuvchi topilmadi. U avval botga /start yuborgan bo'lishi kerak."
	default:
		return "😔 Xatolik yuz berdi. Birozdan so'ng qaytadan urinib ko'ring."
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// HELPERS
// ─────────────────────────────────────────────────────────────────────────────

// ScoreEmoji picks an emoji for a score percentage.
func ScoreEmoji(percentage float64) string {
	switch {
	case percentage >= 90:
		return "🏆"
	case percentage >= 70:
		return "😎"
	case percentage >= 50:
		return "🙂"
	default:
		return "😔"
	}
}

// EscapeHTML escapes HTML special characters in user-provided text.
func EscapeHTML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
	)
	return replacer.Replace(s)
}
