package answer

import (
	"fmt"
	"strings"

	"github.com/mizanhq/mizan/internal/models"
	"github.com/mizanhq/mizan/pkg/utils"
)

// System instructions constrain the model to the supplied context and require
// the answer language to follow the query language. The Arabic variant is
// selected when the query contains Arabic script; both carry the same
// language-matching rule so a mixed-script query still gets a consistent
// directive.
const (
	systemInstructionEN = `You are a legal assistant. Answer the question using ONLY the information in the provided context. If the context does not contain the answer, say so plainly. Do not use outside knowledge. Always respond in the same language as the question: answer Arabic questions in Arabic and English questions in English. Cite the source document and page number for every claim.`

	systemInstructionAR = `أنت مساعد قانوني. أجب عن السؤال باستخدام المعلومات الواردة في السياق المرفق فقط. إذا لم يتضمن السياق الإجابة فصرّح بذلك بوضوح. لا تستخدم أي معرفة خارجية. أجب دائماً بنفس لغة السؤال: أجب عن الأسئلة العربية بالعربية وعن الأسئلة الإنجليزية بالإنجليزية. اذكر اسم المستند ورقم الصفحة لكل معلومة.`
)

// selectSystemInstruction picks the instruction variant by query script.
func selectSystemInstruction(query string) string {
	if utils.ContainsArabic(query) {
		return systemInstructionAR
	}
	return systemInstructionEN
}

// buildContext renders retrieved pages as labeled blocks. The Source/page
// labels give the model the exact strings to cite.
func buildContext(matches []models.Match) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fmt.Sprintf("Source: %s (P.%d)\n%s", m.Page.Source, m.Page.PageNumber, m.Page.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// buildUserPrompt assembles the grounded user payload. The language rule is
// reiterated next to the question because models weight trailing instructions
// more reliably than system-level ones.
func buildUserPrompt(query string, matches []models.Match) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(buildContext(matches))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer using only the context above, in the same language as the question.")
	return b.String()
}
