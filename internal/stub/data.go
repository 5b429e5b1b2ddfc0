package stub

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/transform"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Collections served as paginated lists.
var Collections = []string{
	"jobs", "job-types", "recipes", "recipe-types", "ingests",
	"scans", "strikes", "sources", "nodes", "batches", "workspaces",
}

// windowFields is the timestamp each collection's started/ended window
// filters on.
var windowFields = map[string]string{
	"jobs":    "last_modified",
	"recipes": "last_modified",
	"ingests": "transfer_started",
	"sources": "last_modified",
	"batches": "created",
}

// dataset is everything the fake backend serves.
type dataset struct {
	rows      map[string][]transform.Row
	exes      map[int64][]transform.Row // by job id, newest first
	paused    bool
	online    map[int64]bool
	nextID    map[string]int64
	seededAt  time.Time
	totalCPUs float64
}

func loadFixture(name string) ([]transform.Row, error) {
	data, err := fixtures.ReadFile("fixtures/" + name + ".json")
	if err != nil {
		return nil, err
	}
	return transform.DecodeRows(data)
}

// normalize round-trips v through JSON so every number in the stored rows is
// a json.Number, the same as rows the client decodes.
func normalize(v any) transform.Row {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("stub: marshal row: %v", err))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row transform.Row
	if err := dec.Decode(&row); err != nil {
		panic(fmt.Sprintf("stub: decode row: %v", err))
	}
	return row
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func stampPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return stamp(*t)
}

func at(t time.Time) *time.Time { return &t }

// seed builds a deterministic dataset around now. Records spread over a bit
// more than a week so the default last-week window leaves some out.
func seed(now time.Time) (*dataset, error) {
	now = now.UTC().Truncate(time.Second)
	d := &dataset{
		rows:      map[string][]transform.Row{},
		exes:      map[int64][]transform.Row{},
		online:    map[int64]bool{1: true, 2: false, 3: true, 4: true},
		nextID:    map[string]int64{},
		seededAt:  now,
		totalCPUs: 64,
	}

	fixed := map[string][]transform.Row{}
	for _, name := range []string{"job-types", "recipe-types", "nodes", "strikes", "workspaces", "errors"} {
		rows, err := loadFixture(name)
		if err != nil {
			return nil, fmt.Errorf("load fixture %s: %w", name, err)
		}
		for i, row := range rows {
			row["created"] = stamp(now.Add(-time.Duration(90-i) * 24 * time.Hour))
			row["last_modified"] = stamp(now.Add(-time.Duration(10-i) * 24 * time.Hour))
		}
		fixed[name] = rows
	}
	d.rows["job-types"] = fixed["job-types"]
	d.rows["recipe-types"] = fixed["recipe-types"]
	d.rows["nodes"] = fixed["nodes"]
	d.rows["strikes"] = fixed["strikes"]
	d.rows["workspaces"] = fixed["workspaces"]

	d.seedJobs(now, fixed["job-types"], fixed["nodes"], fixed["errors"])
	d.seedRecipes(now, fixed["recipe-types"])
	d.seedIngests(now, fixed["strikes"])
	d.seedSources(now)
	d.seedScans(now)
	d.seedBatches(now, fixed["recipe-types"])

	for name, rows := range d.rows {
		var max int64
		for _, r := range rows {
			if id, ok := r.Int64("id"); ok && id > max {
				max = id
			}
		}
		d.nextID[name] = max + 1
	}
	return d, nil
}

func ref(row transform.Row, keys ...string) map[string]any {
	out := map[string]any{}
	for _, k := range keys {
		if v, ok := row[k]; ok {
			out[k] = v
		}
	}
	return out
}

func jobStatusFor(i int) model.JobStatus {
	switch {
	case i < 3:
		return model.StatusRunning
	case i < 6:
		return model.StatusQueued
	case i == 6:
		return model.StatusPending
	case i%11 == 0:
		return model.StatusFailed
	case i%17 == 0:
		return model.StatusCanceled
	case i%23 == 0:
		return model.StatusBlocked
	}
	return model.StatusCompleted
}

func (d *dataset) seedJobs(now time.Time, types, nodes, errs []transform.Row) {
	const count = 120
	for i := 0; i < count; i++ {
		id := int64(count - i)
		jt := types[2+i%4]
		if i%10 == 9 {
			jt = types[0]
		}
		status := jobStatusFor(i)
		created := now.Add(-time.Duration(i*97+5) * time.Minute)
		node := nodes[i%len(nodes)]

		var queued, started, ended *time.Time
		switch status {
		case model.StatusPending, model.StatusBlocked:
		case model.StatusQueued:
			queued = at(created.Add(time.Minute))
		default:
			queued = at(created.Add(time.Minute))
			started = at(created.Add(2 * time.Minute))
			if status.Terminal() {
				ended = at(started.Add(time.Duration(5+i%40) * time.Minute))
			}
		}
		lastModified := created
		switch {
		case ended != nil:
			lastModified = *ended
		case started != nil:
			lastModified = now
		case queued != nil:
			lastModified = *queued
		}

		var jobErr any
		if status == model.StatusFailed {
			jobErr = errs[i%len(errs)]
		}
		numExes := 0
		if started != nil {
			numExes = 1
		}
		row := map[string]any{
			"id":                 id,
			"job_type":           ref(jt, "id", "name", "version", "title", "category", "icon_code", "is_paused"),
			"status":             string(status),
			"priority":           jt["priority"],
			"num_exes":           numExes,
			"max_tries":          jt["max_tries"],
			"timeout":            1800,
			"cpus_required":      float64(1 + i%4),
			"mem_required":       float64(1024 * (1 + i%8)),
			"disk_in_required":   float64(256 * (1 + i%3)),
			"disk_out_required":  float64(128 * (1 + i%5)),
			"error":              jobErr,
			"created":            stamp(created),
			"queued":             stampPtr(queued),
			"started":            stampPtr(started),
			"ended":              stampPtr(ended),
			"last_status_change": stamp(lastModified),
			"last_modified":      stamp(lastModified),
		}
		d.rows["jobs"] = append(d.rows["jobs"], normalize(row))

		if started != nil {
			exe := map[string]any{
				"id":                executionID(id, 1),
				"status":            string(status),
				"command_arguments": fmt.Sprintf("%s --input /scale/input --output /scale/output", jt.String("name")),
				"timeout":           1800,
				"created":           stamp(*queued),
				"queued":            stampPtr(queued),
				"started":           stampPtr(started),
				"ended":             stampPtr(ended),
				"last_modified":     stamp(lastModified),
				"node":              ref(node, "id", "hostname"),
				"error":             jobErr,
			}
			d.exes[id] = []transform.Row{normalize(exe)}
		}
	}
}

// executionID derives an execution id from its job id and try number.
func executionID(jobID int64, try int) int64 {
	return jobID*10 + int64(try)
}

func (d *dataset) seedRecipes(now time.Time, types []transform.Row) {
	for i := 0; i < 40; i++ {
		rt := types[i%len(types)]
		created := now.Add(-time.Duration(i*5+1) * time.Hour)
		var completed *time.Time
		lastModified := now
		if i >= 2 {
			completed = at(created.Add(time.Duration(20+i) * time.Minute))
			lastModified = *completed
		}
		d.rows["recipes"] = append(d.rows["recipes"], normalize(map[string]any{
			"id":            int64(40 - i),
			"recipe_type":   ref(rt, "id", "name", "version", "title"),
			"created":       stamp(created),
			"completed":     stampPtr(completed),
			"last_modified": stamp(lastModified),
		}))
	}
}

var ingestCycle = []string{
	"INGESTED", "INGESTED", "INGESTING", "INGESTED", "ERRORED",
	"INGESTED", "TRANSFERRED", "DUPLICATE", "INGESTED", "DEFERRED",
}

func (d *dataset) seedIngests(now time.Time, strikes []transform.Row) {
	for i := 0; i < 60; i++ {
		status := ingestCycle[i%len(ingestCycle)]
		if i == 0 {
			status = "TRANSFERRING"
		}
		strike := strikes[i%len(strikes)]
		started := now.Add(-time.Duration(i*3+1) * time.Hour)
		transferEnded := started.Add(90 * time.Second)
		var ingestStarted, ingestEnded *time.Time
		switch status {
		case "INGESTING":
			ingestStarted = at(transferEnded)
		case "INGESTED", "ERRORED", "DUPLICATE":
			ingestStarted = at(transferEnded)
			ingestEnded = at(transferEnded.Add(4 * time.Minute))
		}
		var transferEndedV any = stamp(transferEnded)
		if status == "TRANSFERRING" {
			transferEndedV = nil
		}
		lastModified := started
		if ingestEnded != nil {
			lastModified = *ingestEnded
		}
		prefix := "LC08_L1TP"
		if strike.String("name") == "sentinel-s3" {
			prefix = "S2A_MSIL1C"
		}
		d.rows["ingests"] = append(d.rows["ingests"], normalize(map[string]any{
			"id":               int64(60 - i),
			"file_name":        fmt.Sprintf("%s_%03d_%s.tar.gz", prefix, 100+i, started.Format("20060102")),
			"file_size":        int64(i+1) * 37_000_000,
			"status":           status,
			"strike":           ref(strike, "id", "name", "title"),
			"transfer_started": stamp(started),
			"transfer_ended":   transferEndedV,
			"ingest_started":   stampPtr(ingestStarted),
			"ingest_ended":     stampPtr(ingestEnded),
			"last_modified":    stamp(lastModified),
		}))
	}
}

var countries = []string{"USA", "CAN", "MEX", "BRA", "FRA", "KEN"}

func (d *dataset) seedSources(now time.Time) {
	for i := 0; i < 50; i++ {
		dataStarted := now.Add(-time.Duration(i*4+30) * time.Hour)
		d.rows["sources"] = append(d.rows["sources"], normalize(map[string]any{
			"id":            int64(50 - i),
			"file_name":     fmt.Sprintf("LC08_L1TP_%03d_%s.h5", 200+i, dataStarted.Format("20060102")),
			"file_size":     int64(i+3) * 12_500_000,
			"media_type":    "application/x-hdf5",
			"data_started":  stamp(dataStarted),
			"data_ended":    stamp(dataStarted.Add(15 * time.Minute)),
			"countries":     []string{countries[i%len(countries)]},
			"is_parsed":     i%7 != 0,
			"last_modified": stamp(now.Add(-time.Duration(i*4) * time.Hour)),
		}))
	}
}

func (d *dataset) seedScans(now time.Time) {
	d.rows["scans"] = []transform.Row{
		normalize(map[string]any{
			"id": int64(1), "name": "landsat-backfill", "title": "Landsat Backfill",
			"file_count": 1240, "created": stamp(now.Add(-20 * 24 * time.Hour)),
			"last_modified": stamp(now.Add(-19 * 24 * time.Hour)),
		}),
		normalize(map[string]any{
			"id": int64(2), "name": "sentinel-reprocess", "title": "Sentinel Reprocess",
			"file_count": 310, "created": stamp(now.Add(-3 * 24 * time.Hour)),
			"last_modified": stamp(now.Add(-2 * 24 * time.Hour)),
		}),
	}
}

func (d *dataset) seedBatches(now time.Time, types []transform.Row) {
	for i := 0; i < 5; i++ {
		rt := types[i%len(types)]
		status := "CREATED"
		if i == 0 {
			status = "SUBMITTED"
		}
		total := 50 * (i + 1)
		d.rows["batches"] = append(d.rows["batches"], normalize(map[string]any{
			"id":            int64(5 - i),
			"title":         fmt.Sprintf("%s rerun %d", rt.String("title"), 5-i),
			"recipe_type":   ref(rt, "id", "name", "title"),
			"status":        status,
			"created_count": total - i*3,
			"failed_count":  i * 2,
			"total_count":   total,
			"created":       stamp(now.Add(-time.Duration(i*30+2) * time.Hour)),
			"last_modified": stamp(now.Add(-time.Duration(i*30) * time.Hour)),
		}))
	}
}

func (d *dataset) find(collection, id string) (int, transform.Row, bool) {
	for i, r := range d.rows[collection] {
		if r.ID() == id {
			return i, r, true
		}
	}
	return -1, nil, false
}

func (d *dataset) execution(exeID int64) (transform.Row, transform.Row, bool) {
	for _, job := range d.rows["jobs"] {
		id, _ := job.Int64("id")
		for _, exe := range d.exes[id] {
			if n, _ := exe.Int64("id"); n == exeID {
				return job, exe, true
			}
		}
	}
	return nil, nil, false
}

func timeAt(r transform.Row, field string) (time.Time, bool) {
	return transform.ParseTime(r.String(field))
}

// nodeStatus builds the nodes/status/ payload over [started, ended].
func (d *dataset) nodeStatus(started, ended time.Time) map[string]any {
	var results []any
	for _, node := range d.rows["nodes"] {
		nodeID, _ := node.Int64("id")
		counts := map[string]int{}
		var running []any
		for _, job := range d.rows["jobs"] {
			jobID, _ := job.Int64("id")
			for _, exe := range d.exes[jobID] {
				if n, _ := exe.Int64("node.id"); n != nodeID {
					continue
				}
				if exe.String("status") == string(model.StatusRunning) {
					running = append(running, exe)
				}
				if t, ok := timeAt(exe, "last_modified"); ok && !t.Before(started) && !t.After(ended) {
					counts[exe.String("status")]++
				}
			}
		}
		var exeCounts []any
		for _, status := range sortedKeys(counts) {
			exeCounts = append(exeCounts, map[string]any{"status": status, "count": counts[status]})
		}
		results = append(results, map[string]any{
			"node":             node,
			"is_online":        d.online[nodeID],
			"job_exe_counts":   exeCounts,
			"job_exes_running": running,
		})
	}
	return map[string]any{"count": len(results), "results": results}
}

// queueStatus groups queued jobs by job type.
func (d *dataset) queueStatus() map[string]any {
	type entry struct {
		jobType  any
		count    int
		longest  time.Time
		priority int64
		paused   bool
	}
	byType := map[string]*entry{}
	for _, job := range d.rows["jobs"] {
		if job.String("status") != string(model.StatusQueued) {
			continue
		}
		key := job.String("job_type.id")
		e, ok := byType[key]
		if !ok {
			jt, _ := job.Lookup("job_type")
			paused, _ := job.Lookup("job_type.is_paused")
			e = &entry{jobType: jt, paused: paused == true}
			byType[key] = e
		}
		e.count++
		if q, ok := timeAt(job, "queued"); ok && (e.longest.IsZero() || q.Before(e.longest)) {
			e.longest = q
		}
		if p, ok := job.Int64("priority"); ok && (e.priority == 0 || p < e.priority) {
			e.priority = p
		}
	}
	var results []any
	for _, key := range sortedKeys(byType) {
		e := byType[key]
		results = append(results, map[string]any{
			"job_type":           e.jobType,
			"count":              e.count,
			"longest_queued":     stamp(e.longest),
			"highest_priority":   e.priority,
			"is_job_type_paused": e.paused,
		})
	}
	return map[string]any{"count": len(results), "results": results}
}

// load buckets pending, queued and running jobs per hour over the window.
func (d *dataset) load(started, ended time.Time) map[string]any {
	var results []any
	for t := started.Truncate(time.Hour); !t.After(ended); t = t.Add(time.Hour) {
		var pending, queued, running int
		for _, job := range d.rows["jobs"] {
			created, _ := timeAt(job, "created")
			if created.After(t) {
				continue
			}
			if end, ok := timeAt(job, "ended"); ok && !end.After(t) {
				continue
			}
			start, hasStart := timeAt(job, "started")
			switch {
			case hasStart && !start.After(t):
				running++
			case job.String("status") == string(model.StatusPending) || job.String("status") == string(model.StatusBlocked):
				pending++
			default:
				queued++
			}
		}
		results = append(results, map[string]any{
			"time":          stamp(t),
			"pending_count": pending,
			"queued_count":  queued,
			"running_count": running,
		})
	}
	return map[string]any{"count": len(results), "results": results}
}

// runningStatus groups running jobs by job type. longest_running is the
// start of the oldest one.
func (d *dataset) runningStatus() map[string]any {
	type entry struct {
		jobType any
		count   int
		longest time.Time
	}
	byType := map[string]*entry{}
	for _, job := range d.rows["jobs"] {
		if job.String("status") != string(model.StatusRunning) {
			continue
		}
		key := job.String("job_type.id")
		e, ok := byType[key]
		if !ok {
			jt, _ := job.Lookup("job_type")
			e = &entry{jobType: jt}
			byType[key] = e
		}
		e.count++
		if t, ok := timeAt(job, "started"); ok && (e.longest.IsZero() || t.Before(e.longest)) {
			e.longest = t
		}
	}
	var results []any
	for _, key := range sortedKeys(byType) {
		e := byType[key]
		var longest any
		if !e.longest.IsZero() {
			longest = stamp(e.longest)
		}
		results = append(results, map[string]any{
			"job_type":        e.jobType,
			"count":           e.count,
			"longest_running": longest,
		})
	}
	return map[string]any{"count": len(results), "results": results}
}

// jobTypeStatus counts the jobs of every job type by status and error
// category, over the jobs last modified within [started, ended].
func (d *dataset) jobTypeStatus(started, ended time.Time) map[string]any {
	type bucket struct {
		status, category string
	}
	var results []any
	for _, jt := range d.rows["job-types"] {
		typeID, _ := jt.Int64("id")
		counts := map[bucket]int{}
		recent := map[bucket]time.Time{}
		for _, job := range d.rows["jobs"] {
			if id, _ := job.Int64("job_type.id"); id != typeID {
				continue
			}
			t, ok := timeAt(job, "last_modified")
			if !ok || t.Before(started) || t.After(ended) {
				continue
			}
			b := bucket{status: job.String("status")}
			if b.status == string(model.StatusFailed) {
				b.category = job.String("error.category")
			}
			counts[b]++
			if t.After(recent[b]) {
				recent[b] = t
			}
		}
		keys := make([]bucket, 0, len(counts))
		for b := range counts {
			keys = append(keys, b)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].status != keys[j].status {
				return keys[i].status < keys[j].status
			}
			return keys[i].category < keys[j].category
		})
		jobCounts := []any{}
		for _, b := range keys {
			jobCounts = append(jobCounts, map[string]any{
				"status":      b.status,
				"count":       counts[b],
				"most_recent": stamp(recent[b]),
				"category":    b.category,
			})
		}
		results = append(results, map[string]any{
			"job_type":   ref(jt, "id", "name", "version", "title", "category", "icon_code", "is_paused"),
			"job_counts": jobCounts,
		})
	}
	return map[string]any{"count": len(results), "results": results}
}

func (d *dataset) systemStatus(host string) map[string]any {
	var scheduledCPUs, scheduledMem float64
	for _, job := range d.rows["jobs"] {
		if job.String("status") != string(model.StatusRunning) {
			continue
		}
		cpus, _ := job.Float("cpus_required")
		mem, _ := job.Float("mem_required")
		scheduledCPUs += cpus
		scheduledMem += mem
	}
	queue := d.queueStatus()["results"]
	return map[string]any{
		"master": map[string]any{"is_online": true, "hostname": host, "port": 5050},
		"scheduler": map[string]any{
			"is_online": true, "is_paused": d.paused, "hostname": host,
		},
		"queue_depth_by_job_type": queue,
		"resources": map[string]any{
			"total":     map[string]any{"cpus": d.totalCPUs, "mem": 262144.0, "disk": 4_000_000.0},
			"scheduled": map[string]any{"cpus": scheduledCPUs, "mem": scheduledMem, "disk": 0.0},
		},
	}
}

// executionLog renders an execution's log stream, one line per 30 seconds of
// run time. Lines stamped at or before since are left out.
func (d *dataset) executionLog(job, exe transform.Row, stream string, since time.Time) string {
	started, ok := timeAt(exe, "started")
	if !ok {
		return ""
	}
	ended, ok := timeAt(exe, "ended")
	if !ok {
		ended = d.seededAt
	}
	name := job.String("job_type.name")
	failed := exe.String("status") == string(model.StatusFailed)

	var b strings.Builder
	step := 0
	for t := started; !t.After(ended); t = t.Add(30 * time.Second) {
		step++
		if !since.IsZero() && !t.After(since) {
			continue
		}
		ts := t.Format(time.RFC3339)
		if stream != "stderr" {
			fmt.Fprintf(&b, "%s INFO %s: processing chunk %d\n", ts, name, step)
		}
		if stream != "stdout" && step%5 == 0 {
			fmt.Fprintf(&b, "%s WARN %s: slow read on chunk %d\n", ts, name, step)
		}
	}
	if failed && stream != "stdout" && (since.IsZero() || ended.After(since)) {
		fmt.Fprintf(&b, "%s ERROR %s: %s\n", ended.Format(time.RFC3339), name, job.String("error.description"))
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
