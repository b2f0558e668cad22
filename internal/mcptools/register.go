package mcptools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolCount is the number of tools Register adds
const ToolCount = 10

// Register adds every validator tool to server
func Register(server *mcp.Server, t *Tools) error {
	// Store
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "load_metadata_file",
			Description: "Parse a glossary or dictionary workbook (csv, xlsx, xls), a policy document (pdf, docx, txt) or a sample dataset (csv, json, parquet) into the session store. Replaces whatever the slot held.",
		},
		t.LoadFile,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_dataset",
			Description: "Return the stored contents of one slot: glossary, dictionary, policy or sample.",
		},
		t.GetDataset,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "clear_dataset",
			Description: "Empty one slot of the session store.",
		},
		t.ClearDataset,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "store_summary",
			Description: "Show which files are loaded and how many fields, rules and columns each holds.",
		},
		t.StoreSummary,
	)

	// Policy
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "policy_summary",
			Description: "Count rules by category, severity and domain for the stored policy document.",
		},
		t.PolicySummary,
	)

	// Scoring and validation
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "score_match",
			Description: "Compute the composite match score (60% description, 20% type, 20% sensitivity) and its band.",
		},
		t.ScoreMatch,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "compare_datasets",
			Description: "Grade the stored glossary or dictionary against a reference workbook, field by field.",
		},
		t.CompareDatasets,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_dataset",
			Description: "Grade the stored glossary or dictionary against descriptions generated by the configured model.",
		},
		t.ValidateDataset,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_metadata",
			Description: "Full-text search over loaded fields, policy rules, sections, domains and sample columns.",
		},
		t.SearchMetadata,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "export_store",
			Description: "Write the loaded datasets and policy rules to the configured export database.",
		},
		t.ExportStore,
	)

	return nil
}
