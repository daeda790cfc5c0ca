package feature

import (
	"os"
	"path/filepath"

	"github.com/KaramelBytes/callpulse/internal/table"
)

// Source names.
const (
	SourceCalls        = "calls"
	SourceManagerTypes = "manager_types"
	SourceTriggerWords = "trigger_words"
	SourceAgents       = "agents"
)

// Column names shared by the sources.
const (
	ColManager     = "ID_MANAGER"
	ColTranscript  = "CALL_CHIFR"
	ColSales       = "SALES"
	ColStatus      = "STATUS"
	ColOrder       = "ID_ZAKAZ"
	ColCustomer    = "CUSTOMERNAME"
	ColType        = "TYPE"
	ColDescription = "DESCRIPTION"
	ColTrigger     = "TRIGGER WORD"
	ColName        = "NAME"
	ColTeam        = "TEAM"
)

// Sources maps a source name to its descriptor.
type Sources map[string]table.SourceDescriptor

// DefaultSources describes the files expected under dataDir. A source is
// read from <base>.xlsx when that exists and <base>.csv does not.
func DefaultSources(dataDir, encoding string, delimiter rune) Sources {
	desc := func(name, base string, cols ...[]table.Column) table.SourceDescriptor {
		var schema table.Schema
		for _, c := range cols {
			schema.Columns = append(schema.Columns, c...)
		}
		return table.SourceDescriptor{
			Name:      name,
			Path:      resolve(dataDir, base),
			Delimiter: delimiter,
			Encoding:  encoding,
			Schema:    schema,
		}
	}
	return Sources{
		SourceCalls: desc(SourceCalls, "db",
			table.Require(ColManager, ColTranscript),
			table.Optional(ColSales, ColStatus, ColOrder, ColCustomer)),
		SourceManagerTypes: desc(SourceManagerTypes, "type_manager", table.Require(ColType, ColDescription)),
		SourceTriggerWords: desc(SourceTriggerWords, "trigger_words", table.Require(ColTrigger)),
		SourceAgents:       desc(SourceAgents, "managers", table.Require(ColManager), table.Optional(ColName, ColTeam)),
	}
}

func resolve(dir, base string) string {
	csvPath := filepath.Join(dir, base+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		return csvPath
	}
	xlsxPath := filepath.Join(dir, base+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		return xlsxPath
	}
	return csvPath
}
