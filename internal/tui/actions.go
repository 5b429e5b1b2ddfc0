package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/tui/confirm"
	"github.com/altinukshini/scale-tui/internal/tui/draftsview"
	"github.com/altinukshini/scale-tui/internal/tui/listview"
	"github.com/altinukshini/scale-tui/internal/tui/logview"
	"github.com/altinukshini/scale-tui/internal/tui/nodesview"
	"github.com/altinukshini/scale-tui/internal/tui/searchview"
	"github.com/altinukshini/scale-tui/internal/ui"
)

type jobRef struct {
	ID    int64
	Label string
}

// requestAction turns an in-row action into a confirm dialog or a
// navigation.
func (a *App) requestAction(msg listview.ActionRequestMsg) tea.Cmd {
	rec := msg.Record
	id, err := strconv.ParseInt(rec.ID(), 10, 64)
	if err != nil {
		a.status = "Row has no id"
		return nil
	}
	label := rec.Get("job_type.title")
	if v := rec.Get("job_type.version"); v != "" {
		label += " " + v
	}

	switch msg.Action {
	case listview.ActionLog:
		return a.navigate(logview.Route(id, 0, ""))
	case listview.ActionCancel:
		a.askCancel(id, label)
	case listview.ActionRequeue:
		a.askRequeue(id, label)
	case listview.ActionPause:
		a.askPause(nodesview.PauseMsg{
			Node: model.Node{
				ID:          id,
				Hostname:    rec.Get("hostname"),
				IsPaused:    rec.Get("is_paused") == "true",
				PauseReason: rec.Get("pause_reason"),
			},
			Pause: rec.Get("is_paused") != "true",
		})
	}
	return nil
}

func (a *App) askCancel(id int64, label string) {
	if a.readOnly {
		return
	}
	a.confirmDialog = confirm.New("Cancel job",
		fmt.Sprintf("Cancel job %d (%s)? Its running execution is killed.", id, label),
		"cancel-job", jobRef{ID: id, Label: label})
}

func (a *App) askRequeue(id int64, label string) {
	if a.readOnly {
		return
	}
	a.confirmDialog = confirm.New("Requeue job",
		fmt.Sprintf("Requeue job %d (%s)?", id, label),
		"requeue-job", jobRef{ID: id, Label: label})
}

func (a *App) askPause(req nodesview.PauseMsg) {
	if a.readOnly {
		return
	}
	title := "Resume node"
	if req.Pause {
		title = "Pause node"
	}
	a.confirmDialog = confirm.New(title, nodesview.FormatPause(req), "pause-node", req)
	if req.Pause {
		a.confirmDialog = a.confirmDialog.WithInput("Pause reason", "")
	}
}

func (a *App) askScheduler(pause bool) {
	if a.readOnly {
		return
	}
	msg := "Resume the scheduler? Queued jobs start being scheduled again."
	title := "Resume scheduler"
	if pause {
		msg = "Pause the scheduler? No new job executions are scheduled until it is resumed."
		title = "Pause scheduler"
	}
	a.confirmDialog = confirm.New(title, msg, "scheduler", pause)
}

// confirmed runs the action of an accepted dialog.
func (a *App) confirmed(result confirm.ResultMsg) tea.Cmd {
	client := a.client
	switch result.Action {
	case "cancel-job":
		job := result.Data.(jobRef)
		a.status = fmt.Sprintf("Canceling job %d...", job.ID)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			_, err := client.CancelJob(ctx, job.ID)
			return ui.ActionResultMsg{
				Action:  "cancel",
				Target:  strconv.FormatInt(job.ID, 10),
				Message: fmt.Sprintf("Canceled job %d (%s)", job.ID, job.Label),
				Err:     err,
			}
		}

	case "requeue-job":
		job := result.Data.(jobRef)
		a.status = fmt.Sprintf("Requeueing job %d...", job.ID)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			err := client.RequeueJob(ctx, job.ID)
			return ui.ActionResultMsg{
				Action:  "requeue",
				Target:  strconv.FormatInt(job.ID, 10),
				Message: fmt.Sprintf("Requeued job %d (%s)", job.ID, job.Label),
				Err:     err,
			}
		}

	case "pause-node":
		req := result.Data.(nodesview.PauseMsg)
		update := model.NodeUpdate{IsPaused: req.Pause}
		verb := "Resumed"
		if req.Pause {
			update.PauseReason = result.Input
			verb = "Paused"
		}
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			_, err := client.UpdateNode(ctx, req.Node.ID, update)
			return ui.ActionResultMsg{
				Action:  "pause",
				Target:  req.Node.Hostname,
				Message: verb + " node " + req.Node.Hostname,
				Err:     err,
			}
		}

	case "scheduler":
		pause := result.Data.(bool)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()
			s, err := client.UpdateScheduler(ctx, pause)
			text := "Scheduler resumed"
			if err == nil && s.IsPaused {
				text = "Scheduler paused"
			}
			return ui.ActionResultMsg{Action: "scheduler", Target: "scheduler", Message: text, Err: err}
		}

	case "delete-drafts":
		req := result.Data.(draftsview.DeleteMsg)
		return a.draftsView.Delete(req)
	}
	a.logger.Warn("unhandled confirm action", zap.String("action", result.Action))
	return nil
}

// runSearch searches every stream of the open execution. Streams that were
// neither shown nor cached are downloaded first.
func (a App) runSearch(q model.SearchQuery) tea.Cmd {
	exeID := a.logView.ExecutionID()
	if exeID == 0 {
		return func() tea.Msg {
			return ui.SearchResultsMsg{Err: fmt.Errorf("no execution is open")}
		}
	}
	logs := a.logView.Logs()
	client, engine := a.client, a.search
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		for _, stream := range model.LogStreams {
			if _, ok := logs[stream]; ok {
				continue
			}
			content, err := client.GetExecutionLog(ctx, exeID, stream, time.Time{})
			if err != nil {
				// A missing stream is not fatal; the rest are still searched.
				continue
			}
			logs[stream] = content
		}
		return ui.SearchResultsMsg{Results: engine.Search(logs, q, exeID)}
	}
}

// jump shows a search match, switching stream first when needed.
func (a *App) jump(msg searchview.JumpMsg) tea.Cmd {
	a.searchView.Deactivate()
	if msg.Stream == a.logView.Stream() {
		a.logView.GotoLine(msg.Line)
		return nil
	}
	a.pendingJump = &msg
	var cmd tea.Cmd
	a.logView, cmd = a.logView.Open(a.logView.JobID(), a.logView.ExecutionID(), msg.Stream)
	return cmd
}

// applyPendingJump scrolls to a waiting search match once its stream is on
// screen.
func (a *App) applyPendingJump() {
	j := a.pendingJump
	if j == nil || a.logView.Stream() != j.Stream || a.logView.Content() == "" {
		return
	}
	a.logView.GotoLine(j.Line)
	a.pendingJump = nil
}
