package descriptions

import "sort"

// Tool names exposed by the server.
const (
	ToolGenerate     = "instruction_generate"
	ToolRecordLoad   = "instruction_record_load"
	ToolRecordSave   = "instruction_record_save"
	ToolRecordList   = "instruction_record_list"
	ToolPDFValidate  = "instruction_pdf_validate"
	ToolPDFInspect   = "instruction_pdf_inspect"
	ToolServerInfo   = "instruction_server_info"
	descriptionUnset = "Tool description not available"
)

// Tool descriptions with practical examples and use cases

const (
	GenerateDescription = `Render an installation instruction as a fixed two-page A4 PDF.

**When to use:** A record (make/model, module number, year, revision, program number and date, descriptions, photos) is ready and a printable instruction sheet is needed.

**What it produces:** Every page carries a header table with the equipment data and a footer with the generation stamp and page number. Page 1 holds the connection instructions followed by a three-column photo grid; page 2 holds the additional description and indicators. Missing or unreadable photos become placeholder cells instead of failing the document.

**Examples:**
• From a stored record: "Generate the instruction for records/vw-005540.json"
• Inline: "Generate an instruction for car_make=Skoda, module_no=005540, program_date=2024-01-01"
• Override photos: "Generate vw-005540.json with photos/front.jpg and photos/back.png"

**Common workflows:**
1. Record first: instruction_record_save → instruction_generate → instruction_pdf_inspect
2. Quick render: instruction_generate with inline fields → instruction_pdf_validate

**Best practices:** car_make is required and program_date must be YYYY-MM-DD. Relative paths resolve inside the work directory. A render failure is reported as success=false with a message, not as a tool error.`

	RecordLoadDescription = `Load a stored instruction record (JSON or YAML).

**When to use:** To review or edit a record saved earlier, or to check what instruction_generate will render.

**Examples:**
• "Load records/vw-005540.json"
• "Show me the YAML record audi-77.yaml"

**Best practices:** Absent keys load as empty strings and an empty photo list; the format follows the file extension.`

	RecordSaveDescription = `Save an instruction record to the work directory.

**When to use:** To persist the entered form data so the instruction can be regenerated later.

**Examples:**
• "Save this record as records/vw-005540.json"
• "Save the record" (file name defaults to {car_make}-{module_no}.json)

**Best practices:** Files are written as UTF-8 with non-ASCII text kept literally and 4-space indentation. Use a .yaml or .yml extension to store YAML.`

	RecordListDescription = `List records and generated instruction PDFs in the work directory.

**When to use:** To discover what has already been entered or generated.

**Examples:**
• "List all records" (kind=record)
• "Find instructions for 005540" (query=005540)

**Best practices:** Query matching is fuzzy on file names; kind is record, pdf or all.`

	PDFValidateDescription = `Check that a generated PDF is structurally valid.

**When to use:** After generation, or before handing a file to a printer or another system.

**Examples:**
• "Validate vw-005540_instruction.pdf"

**Best practices:** The file is opened with two independent PDF parsers; the page count is reported when valid.`

	PDFInspectDescription = `Extract the per-page text and document info of a generated PDF.

**When to use:** To confirm what was rendered on each page (header values, headings, paragraphs, placeholders) without opening a viewer.

**Examples:**
• "What does page 2 of vw-005540_instruction.pdf say?"
• "Who generated audi-77_instruction.pdf?"

**Best practices:** Text is returned per page; title, author and creator come from the document info dictionary.`

	ServerInfoDescription = `Describe the server: work directory, language, limits, tools and current files.

**When to use:** At the start of a session to learn what the server can do and what it already holds.

**Best practices:** Directory contents are cached for a few minutes and limited in size.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolGenerate:    GenerateDescription,
	ToolRecordLoad:  RecordLoadDescription,
	ToolRecordSave:  RecordSaveDescription,
	ToolRecordList:  RecordListDescription,
	ToolPDFValidate: PDFValidateDescription,
	ToolPDFInspect:  PDFInspectDescription,
	ToolServerInfo:  ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return descriptionUnset
}

// GetAllToolNames returns the sorted list of tool names
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
