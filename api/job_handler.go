package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/stint"
	"github.com/xraph/stint/actor"
	"github.com/xraph/stint/id"
)

func (a *API) startJob(ctx forge.Context, req *StartJobRequest) (*StartJobResponse, error) {
	jobID, err := id.ParseJobID(ctx.Param("jobId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid job ID: %v", err))
	}
	if len(req.Request) == 0 {
		return nil, forge.BadRequest("request payload is required")
	}

	if err := a.eng.StartJobRaw(ctx.Context(), jobID, req.Request, req.Config); err != nil {
		return nil, fmt.Errorf("start job: %w", err)
	}

	resp := &StartJobResponse{Accepted: true, JobID: jobID.String()}
	return resp, ctx.JSON(http.StatusAccepted, resp)
}

func (a *API) getJobStatus(ctx forge.Context, _ *GetJobStatusRequest) (*actor.StatusReport, error) {
	jobID, err := id.ParseJobID(ctx.Param("jobId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid job ID: %v", err))
	}

	report, err := a.eng.Status(ctx.Context(), jobID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	return report, ctx.JSON(http.StatusOK, report)
}

func (a *API) getJobLog(ctx forge.Context, _ *GetJobLogRequest) (*JobLogResponse, error) {
	jobID, err := id.ParseJobID(ctx.Param("jobId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid job ID: %v", err))
	}

	as, ok := a.eng.Runtime().Store().(actor.Store)
	if !ok {
		return nil, fmt.Errorf("store does not implement actor.Store")
	}

	st, err := as.GetState(ctx.Context(), jobID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if st.LogFileID == "" {
		return nil, forge.NotFound(fmt.Sprintf("job %s has no log record yet", jobID))
	}

	item, err := a.eng.ContentStore().GetItem(ctx.Context(), st.LogFileID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	resp := &JobLogResponse{LogFileID: item.ID, Properties: item.Properties}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) health(ctx forge.Context) error {
	if err := a.eng.Runtime().Store().Ping(ctx.Context()); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// mapStoreError converts stint sentinel errors to forge HTTP errors.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, stint.ErrJobNotFound) ||
		errors.Is(err, stint.ErrTimerNotFound) ||
		errors.Is(err, stint.ErrItemNotFound)
}
