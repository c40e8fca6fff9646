package bot

// Reply keyboard buttons. EnterDataButton is the label used by the
// command-driven menu; both start a new collection.
const (
	StartButton     = "📊 Tahlilni Boshlash"
	EnterDataButton = "📊 Ma'lumot Kiritish"
	AnalyzeButton   = "🚀 Tahlil Qilish"
	CancelButton    = "🚫 Bekor Qilish"
)

const (
	welcomeText = "Assalomu alaykum! Men Avtomatik Zona Qidiruvchi Botiman. Boshlash uchun quyidagi tugmani bosing:"

	startedText = "✅ Jarayon boshlandi.\nEndi spayklar ro'yxatini bir yoki bir nechta xabarda yuborishingiz mumkin.\n\n" +
		"Tugatgach, '" + AnalyzeButton + "' tugmasini bosing yoki /tahlil buyrug'ini yozing."

	noDataText       = "Iltimos, avval spayklar ro'yxatini yuboring. Tahlil uchun ma'lumot yo'q."
	notStartedText   = "Tahlil qilish uchun avval '" + StartButton + "' tugmasini bosing va spayklar ro'yxatini yuboring."
	analyzingText    = "⏳ Tahlil qilmoqdaman... Bu biroz vaqt olishi mumkin."
	analysisErrorFmt = "❗️ Tahlil vaqtida xatolik: %s"
	againText        = "Yangi tahlilni boshlash uchun quyidagi tugmani bosing:"
	cancelledText    = "Jarayon bekor qilindi."
	bufferFullText   = "❗️ Ma'lumotlar hajmi chegaradan oshdi. Oxirgi xabar qabul qilinmadi. Tahlilni boshlang yoki bekor qiling."
	noHistoryText    = "Hali tahlillar yo'q."
)
