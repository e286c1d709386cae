package assistant

import "strings"

// Fixed prompt sections. The grounding rule is a behavioral contract
// passed to the model; the pipeline does not verify it locally.
const (
	personaSection = "คุณคือผู้ช่วยให้ข้อมูลอย่างเป็นทางการของวิทยาลัยอาชีวศึกษานครศรีธรรมราช " +
		"ตอบคำถามเกี่ยวกับหลักสูตร การรับสมัคร ที่ตั้ง ช่องทางการติดต่อ และข้อมูลอื่น ๆ ของวิทยาลัยฯ"

	formattingSection = "ตอบให้กระชับ เป็นข้อความธรรมดา ไม่ต้องใช้ markdown"

	groundingSection = "โปรดตอบคำถามโดยอ้างอิงจากข้อมูลวิทยาลัยฯ ที่ให้มาเท่านั้น " +
		"หากคำถามไม่เกี่ยวกับข้อมูลที่ให้มา หรือคุณไม่พบคำตอบในข้อมูลที่ให้มา " +
		"ให้ตอบว่า \"ขออภัยครับ ผมไม่สามารถให้ข้อมูลในเรื่องนี้ได้ในขณะนี้\""

	referenceHeader = "---ข้อมูลวิทยาลัยอาชีวศึกษานครศรีธรรมราช---"
	referenceFooter = "---จบข้อมูลวิทยาลัยฯ---"
	questionHeader  = "---คำถามใหม่---"
	answerCue       = "คำตอบ:"
)

// Compose assembles the single text payload sent to the model. Pure
// function; section order is fixed: persona, formatting guidance,
// grounding rule, reference text, history block, media catalog
// instructions, the verbatim question, the answer cue. Empty history or
// catalog sections are omitted.
func Compose(referenceText, historyBlock, catalogInstructions, question string) string {
	sections := []string{
		personaSection,
		formattingSection,
		groundingSection,
		referenceHeader + "\n" + referenceText + "\n" + referenceFooter,
	}

	if historyBlock != "" {
		sections = append(sections, historyBlock)
	}
	if catalogInstructions != "" {
		sections = append(sections, catalogInstructions)
	}

	sections = append(sections, questionHeader+"\n"+question, answerCue)

	return strings.Join(sections, "\n\n")
}
