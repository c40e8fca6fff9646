// Package report renders zone search results for chat and terminal output.
package report

import (
	"fmt"
	"strings"

	"spike-zone-bot/zones"
)

// NoZones is sent when no window scored above zero.
const NoZones = "Tahlil natijasida barqaror zona topilmadi."

var medals = []string{"🥇 Oltin Zona", "🥈 Kumush Zona", "🥉 Bronza Zona"}

// Medal returns the label for the zero-based rank i.
func Medal(i int) string {
	if i >= 0 && i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("🏅 %d-Zona", i+1)
}

// Clock formats a minute of day as zero-padded HH:MM. Values of 1440 and up
// are not reduced, so they read as "24:10" and the like.
func Clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// Markdown renders res with Telegram legacy Markdown emphasis.
func Markdown(res zones.Result) string {
	if len(res.Zones) == 0 {
		return NoZones
	}

	var b strings.Builder
	b.WriteString("*🤖 HAFTALIK TAHLIL: ENG SAMARALI ZONALAR TOPILDI! 🤖*\n\n")
	fmt.Fprintf(&b, "Tahlil qilingan *%d ta* spike asosida, hafta davomida eng ko'p natija bergan *%d daqiqalik* vaqt zonalari:\n\n",
		res.Events, res.Window)

	for i, z := range res.Zones {
		fmt.Fprintf(&b, "*%s: `%s - %s` (Server vaqti)*\n", Medal(i), Clock(z.Start), Clock(res.End(z)))
		fmt.Fprintf(&b, "   • *Statistika:* Bu vaqt oralig'i hafta davomida jami *%d ta* spike bergan.\n", z.Score)
		b.WriteString("   • *Bugungi Kun Uchun Qo'llanma:* Bugun ushbu vaqtda *maksimal darajada hushyor bo'ling*. ")
		b.WriteString("Zona ichida birinchi spike sodir bo'lgach, keyingisi qisqa vaqt ichida (`5-10 daqiqa`) sodir bo'lish ehtimoli statistik jihatdan yuqori.\n\n")
	}

	b.WriteString("_❗️ Eslatma: Bu tahlil faqat o'tmishdagi ma'lumotlarga asoslangan. ")
	b.WriteString("Har bir savdodan oldin risk-menejment qoidalariga (minimal lot, Stop-Loss) qat'iy rioya qiling!_")
	return b.String()
}
