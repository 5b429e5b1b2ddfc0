package views

import (
	"time"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/query"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

func init() {
	register(View{
		Name:  "jobs",
		Title: "Jobs",
		Schema: viewstate.Schema{
			Fields: fields(append(windowFields,
				viewstate.Field{Name: "status"},
				viewstate.Field{Name: "error_category"},
				viewstate.Field{Name: "job_type_id", Kind: viewstate.Int},
				viewstate.Field{Name: "job_type_name"},
				viewstate.Field{Name: "job_type_category"},
			)...),
			Defaults: windowDefaults,
		},
		Endpoint: query.Endpoint{Path: "jobs/"},
		Rules: transform.Rules{
			Times:     []string{"created", "last_modified", "started", "ended"},
			Durations: []transform.DurationRule{{Start: "created", End: "ended"}},
			Icons:     []transform.IconRule{{Field: "status", Table: JobStatusIcons}},
		},
		Columns: []Column{
			{Title: "", Key: "status_icon", Width: 1},
			{Title: "ID", Key: "id", Width: 7, Sort: "id"},
			{Title: "Job Type", Key: "job_type.title", Width: 24, Sort: "job_type__title"},
			{Title: "Version", Key: "job_type.version", Width: 8, Sort: "job_type__version"},
			{Title: "Created (Z)", Key: "created_formatted", Width: 20, Sort: "created"},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
			{Title: "Duration", Key: "duration", Width: 16},
			{Title: "Status", Key: "status", Width: 10, Sort: "status"},
			{Title: "Error", Key: "error.title", Width: 20},
		},
		Filters: []Filter{
			{Key: "status", Label: "Status", Options: statusStrings(model.JobStatuses)},
			{Key: "error_category", Label: "Error Category", Options: withViewAll(model.ErrorCategories...)},
			{Key: "job_type_name", Label: "Job Type"},
			{Key: "started", Label: "Started"},
			{Key: "ended", Label: "Ended"},
		},
		Record: detailPath("jobs"),
		Poll:   "jobs",
	})

	register(View{
		Name:  "job-types",
		Title: "Job Types",
		Schema: viewstate.Schema{
			Fields:   fields(viewstate.Field{Name: "name"}, viewstate.Field{Name: "category"}),
			Defaults: func(now time.Time) viewstate.Params {
				p := pagedDefaults(now)
				p.Set("order", "title")
				return p
			},
		},
		Endpoint: query.Endpoint{Path: "job-types/", Order: []string{"title"}},
		Rules: transform.Rules{
			Times: []string{"created", "last_modified"},
		},
		Columns: []Column{
			{Title: "ID", Key: "id", Width: 5, Sort: "id"},
			{Title: "Title", Key: "title", Width: 28, Sort: "title"},
			{Title: "Version", Key: "version", Width: 8, Sort: "version"},
			{Title: "Category", Key: "category", Width: 14, Sort: "category"},
			{Title: "Paused", Key: "is_paused", Width: 7},
			{Title: "Priority", Key: "priority", Width: 8, Sort: "priority"},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
		},
		Filters: []Filter{
			{Key: "name", Label: "Name"},
			{Key: "category", Label: "Category"},
		},
		Record: detailPath("job-types"),
	})

	register(View{
		Name:  "recipes",
		Title: "Recipes",
		Schema: viewstate.Schema{
			Fields: fields(append(windowFields,
				viewstate.Field{Name: "type_id", Kind: viewstate.Int},
				viewstate.Field{Name: "type_name"},
			)...),
			Defaults: windowDefaults,
		},
		Endpoint: query.Endpoint{Path: "recipes/"},
		Rules: transform.Rules{
			Times:     []string{"created", "completed", "last_modified"},
			Durations: []transform.DurationRule{{Start: "created", End: "completed"}},
		},
		Columns: []Column{
			{Title: "ID", Key: "id", Width: 7, Sort: "id"},
			{Title: "Recipe Type", Key: "recipe_type.title", Width: 26, Sort: "recipe_type__title"},
			{Title: "Version", Key: "recipe_type.version", Width: 8},
			{Title: "Created (Z)", Key: "created_formatted", Width: 20, Sort: "created"},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
			{Title: "Duration", Key: "duration", Width: 16},
			{Title: "Completed (Z)", Key: "completed_formatted", Width: 20, Sort: "completed"},
		},
		Filters: []Filter{
			{Key: "type_name", Label: "Recipe Type"},
			{Key: "started", Label: "Started"},
			{Key: "ended", Label: "Ended"},
		},
		Record: detailPath("recipes"),
		Poll:   "recipes",
	})

	register(View{
		Name:  "recipe-types",
		Title: "Recipe Types",
		Schema: viewstate.Schema{
			Fields:   fields(),
			Defaults: func(now time.Time) viewstate.Params {
				p := pagedDefaults(now)
				p.Set("order", "title")
				return p
			},
		},
		Endpoint: query.Endpoint{Path: "recipe-types/", Order: []string{"title"}},
		Rules:    transform.Rules{Times: []string{"created", "last_modified"}},
		Columns: []Column{
			{Title: "ID", Key: "id", Width: 5, Sort: "id"},
			{Title: "Title", Key: "title", Width: 30, Sort: "title"},
			{Title: "Version", Key: "version", Width: 8, Sort: "version"},
			{Title: "Active", Key: "is_active", Width: 7},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
		},
		Record: detailPath("recipe-types"),
	})

	register(View{
		Name:  "ingests",
		Title: "Ingests",
		Schema: viewstate.Schema{
			Fields:   fields(append(windowFields, viewstate.Field{Name: "status"}, viewstate.Field{Name: "strike_id", Kind: viewstate.Int})...),
			Defaults: windowDefaults,
		},
		Endpoint: query.Endpoint{Path: "ingests/"},
		Rules: transform.Rules{
			Times:     []string{"transfer_started", "transfer_ended", "ingest_started", "ingest_ended", "last_modified"},
			Durations: []transform.DurationRule{{Start: "transfer_started", End: "ingest_ended"}},
			Icons:     []transform.IconRule{{Field: "status", Table: IngestStatusIcons}},
			Sizes:     []string{"file_size"},
		},
		Columns: []Column{
			{Title: "", Key: "status_icon", Width: 1},
			{Title: "File Name", Key: "file_name", Width: 32, Sort: "file_name"},
			{Title: "Size", Key: "file_size_formatted", Width: 10, Sort: "file_size"},
			{Title: "Strike", Key: "strike.title", Width: 16},
			{Title: "Status", Key: "status", Width: 12, Sort: "status"},
			{Title: "Transfer Started (Z)", Key: "transfer_started_formatted", Width: 20, Sort: "transfer_started"},
			{Title: "Ingest Ended (Z)", Key: "ingest_ended_formatted", Width: 20, Sort: "ingest_ended"},
			{Title: "Duration", Key: "duration", Width: 16},
		},
		Filters: []Filter{
			{Key: "status", Label: "Status", Options: withViewAll(IngestStatuses...)},
			{Key: "started", Label: "Started"},
			{Key: "ended", Label: "Ended"},
		},
		Record: detailPath("ingests"),
		Poll:   "ingests",
	})

	register(View{
		Name:  "scans",
		Title: "Scans",
		Schema: viewstate.Schema{
			Fields:   fields(viewstate.Field{Name: "name"}),
			Defaults: pagedDefaults,
		},
		Endpoint: query.Endpoint{Path: "scans/"},
		Rules:    transform.Rules{Times: []string{"created", "last_modified"}},
		Columns: []Column{
			{Title: "ID", Key: "id", Width: 5, Sort: "id"},
			{Title: "Name", Key: "name", Width: 20, Sort: "name"},
			{Title: "Title", Key: "title", Width: 26, Sort: "title"},
			{Title: "Files", Key: "file_count", Width: 7},
			{Title: "Created (Z)", Key: "created_formatted", Width: 20, Sort: "created"},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
		},
		Filters: []Filter{{Key: "name", Label: "Name"}},
		Record:  detailPath("scans"),
	})

	register(View{
		Name:  "strikes",
		Title: "Strikes",
		Schema: viewstate.Schema{
			Fields:   fields(viewstate.Field{Name: "name"}),
			Defaults: pagedDefaults,
		},
		Endpoint: query.Endpoint{Path: "strikes/"},
		Rules: transform.Rules{
			Times: []string{"created", "last_modified"},
			Icons: []transform.IconRule{{Field: "job.status", Table: JobStatusIcons}},
		},
		Columns: []Column{
			{Title: "", Key: "job.status_icon", Width: 1},
			{Title: "ID", Key: "id", Width: 5, Sort: "id"},
			{Title: "Name", Key: "name", Width: 20, Sort: "name"},
			{Title: "Title", Key: "title", Width: 26, Sort: "title"},
			{Title: "Workspace", Key: "configuration.workspace", Width: 16},
			{Title: "Monitor", Key: "configuration.monitor.type", Width: 12},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
		},
		Filters: []Filter{{Key: "name", Label: "Name"}},
		Record:  detailPath("strikes"),
	})

	register(View{
		Name:  "workspaces",
		Title: "Workspaces",
		Schema: viewstate.Schema{
			Fields:   fields(viewstate.Field{Name: "name"}, viewstate.Field{Name: "is_active", Kind: viewstate.Bool}),
			Defaults: pagedDefaults,
		},
		Endpoint: query.Endpoint{Path: "workspaces/"},
		Rules:    transform.Rules{Times: []string{"created", "last_modified"}},
		Columns: []Column{
			{Title: "ID", Key: "id", Width: 5, Sort: "id"},
			{Title: "Name", Key: "name", Width: 20, Sort: "name"},
			{Title: "Title", Key: "title", Width: 26, Sort: "title"},
			{Title: "Broker", Key: "configuration.broker.type", Width: 8},
			{Title: "Active", Key: "is_active", Width: 7, Sort: "is_active"},
			{Title: "Base URL", Key: "base_url", Width: 30},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
		},
		Filters: []Filter{
			{Key: "name", Label: "Name"},
			{Key: "is_active", Label: "Active", Options: withViewAll("true", "false")},
		},
		Record: detailPath("workspaces"),
	})

	register(View{
		Name:  "sources",
		Title: "Source Files",
		Schema: viewstate.Schema{
			Fields: fields(append(windowFields,
				viewstate.Field{Name: "time_field"},
				viewstate.Field{Name: "file_name"},
			)...),
			Defaults: func(now time.Time) viewstate.Params {
				p := windowDefaults(now)
				p.Set("time_field", "last_modified")
				return p
			},
		},
		Endpoint: query.Endpoint{Path: "sources/"},
		Rules: transform.Rules{
			Times: []string{"data_started", "data_ended", "last_modified"},
			Sizes: []string{"file_size"},
		},
		Columns: []Column{
			{Title: "File Name", Key: "file_name", Width: 36, Sort: "file_name"},
			{Title: "Size", Key: "file_size_formatted", Width: 10, Sort: "file_size"},
			{Title: "Data Started (Z)", Key: "data_started_formatted", Width: 20, Sort: "data_started"},
			{Title: "Data Ended (Z)", Key: "data_ended_formatted", Width: 20, Sort: "data_ended"},
			{Title: "Countries", Key: "countries", Width: 12},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
		},
		Filters: []Filter{
			{Key: "file_name", Label: "File Name"},
			{Key: "time_field", Label: "Time Field", Options: []string{"last_modified", "data"}},
			{Key: "started", Label: "Started"},
			{Key: "ended", Label: "Ended"},
		},
		Record: detailPath("sources"),
	})

	register(View{
		Name:  "nodes",
		Title: "Nodes",
		Schema: viewstate.Schema{
			Fields:   fields(),
			Defaults: func(now time.Time) viewstate.Params {
				p := pagedDefaults(now)
				p.Set("order", "hostname")
				return p
			},
		},
		Endpoint: query.Endpoint{Path: "nodes/", Order: []string{"hostname"}},
		Rules:    transform.Rules{Times: []string{"created", "last_modified"}},
		Columns: []Column{
			{Title: "ID", Key: "id", Width: 5, Sort: "id"},
			{Title: "Hostname", Key: "hostname", Width: 30, Sort: "hostname"},
			{Title: "Paused", Key: "is_paused", Width: 7, Sort: "is_paused"},
			{Title: "Reason", Key: "pause_reason", Width: 24},
			{Title: "Active", Key: "is_active", Width: 7},
			{Title: "Last Modified (Z)", Key: "last_modified_formatted", Width: 20, Sort: "last_modified"},
		},
		Record: detailPath("nodes"),
		Poll:   "nodes",
	})

	register(View{
		Name:  "batches",
		Title: "Batches",
		Schema: viewstate.Schema{
			Fields: fields(append(windowFields,
				viewstate.Field{Name: "status"},
				viewstate.Field{Name: "recipe_type_id", Kind: viewstate.Int},
				viewstate.Field{Name: "job_type_id", Kind: viewstate.Int},
			)...),
			Defaults: windowDefaults,
		},
		Endpoint: query.Endpoint{Path: "batches/"},
		Rules:    transform.Rules{Times: []string{"created", "last_modified"}},
		Columns: []Column{
			{Title: "ID", Key: "id", Width: 5, Sort: "id"},
			{Title: "Title", Key: "title", Width: 26, Sort: "title"},
			{Title: "Recipe Type", Key: "recipe_type.title", Width: 20},
			{Title: "Status", Key: "status", Width: 10, Sort: "status"},
			{Title: "Created", Key: "created_count", Width: 8, Sort: "created_count"},
			{Title: "Failed", Key: "failed_count", Width: 7},
			{Title: "Total", Key: "total_count", Width: 7},
			{Title: "Created (Z)", Key: "created_formatted", Width: 20, Sort: "created"},
		},
		Filters: []Filter{
			{Key: "status", Label: "Status", Options: withViewAll(BatchStatuses...)},
			{Key: "started", Label: "Started"},
			{Key: "ended", Label: "Ended"},
		},
		Record: detailPath("batches"),
		Poll:   "batches",
	})
}
