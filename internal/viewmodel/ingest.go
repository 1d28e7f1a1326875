package viewmodel

import (
	"context"
	"errors"
	"fmt"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/task"
)

// stageError names the ingestion stage that failed.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error { return e.err }

// ingestion is the frames-producing half of an ingest command.
type ingestion struct {
	op       string
	provider *ProviderDetails
	request  *RequestDetails
	frames   func(ctx context.Context) ([]models.DataFrame, error)
	done     string
}

// runIngestion registers the provider, produces the frames and ingests
// them. On success Home is told and the main view is shown.
func (b *Base) runIngestion(slot *task.Slot, in ingestion) {
	app := b.env.App
	name := in.provider.Name.Get()
	description := in.provider.Description.Get()
	providerTags := in.provider.Tags.Values()
	providerAttrs := in.provider.Attributes.Map()
	requestTags := in.request.Tags.Values()
	requestAttrs := in.request.Attributes.Map()
	eventName := Optional(in.request.EventName.Get())

	b.Busy.Set(true)
	b.Status.Set("Registering provider...")
	task.RunLatest(b.env.Runner, slot, in.op,
		func(ctx context.Context, t *task.Task) (models.ResultStatus, error) {
			if st := app.RegisterProvider(ctx, name, description, providerTags, providerAttrs); st.IsError {
				return st, &stageError{stage: "Provider registration", err: st.Err()}
			}
			frames, err := in.frames(ctx)
			if err != nil {
				return models.ResultStatus{}, &stageError{stage: in.op, err: err}
			}
			t.Post(func() { b.Status.Set("Ingesting imported data...") })
			res := app.IngestProviderData(ctx, name, requestTags, requestAttrs, eventName, frames)
			if res.Status.IsError {
				return res.Status, &stageError{stage: "Data ingestion", err: res.Status.Err()}
			}
			return res.Status, nil
		},
		func(st models.ResultStatus) {
			b.Busy.Set(false)
			b.Status.Set("Data ingestion completed successfully")
			b.logger.Infof("[Ingest] %s completed: %s", in.op, st.Message)
			if nav, ok := b.navigator(); ok {
				nav.OnDataGenerationSuccess(st.Message + in.done)
			}
		},
		func(err error) {
			b.Busy.Set(false)
			b.logger.Warnf("[Ingest] %s failed: %v", in.op, err)
			var se *stageError
			if errors.As(err, &se) {
				b.Status.Set(se.Error())
				return
			}
			b.Status.Set("Data ingestion failed: " + err.Error())
		})
}
