// internal/common/camunda/fail.go
package camunda

import (
	"context"
	"fmt"

	"medishift-notifications/internal/common/errors"
	"medishift-notifications/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// FailJob reports a handler failure to the broker. Structured errors keep
// their code and retry budget; anything else becomes INTERNAL.
func FailJob(
	ctx context.Context,
	client worker.JobClient,
	job entities.Job,
	err error,
	taskType string,
	log logger.Logger,
) {
	stdErr := errors.Normalize(err)
	bpmnErr := errors.ConvertToBPMNError(stdErr)

	log.Error("Job failed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retries":      bpmnErr.Retries,
		"worker":       taskType,
	})

	failCmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(int32(bpmnErr.Retries)).
		ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message))

	var finalCmd interface {
		Send(context.Context) (*pb.FailJobResponse, error)
	}
	varCmd, varErr := failCmd.VariablesFromMap(bpmnErr.ToErrorVariables())
	if varErr != nil {
		log.Error("Failed to set error variables, sending without them", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  varErr.Error(),
			"worker": taskType,
		})
		finalCmd = failCmd
	} else {
		finalCmd = varCmd
	}

	if _, failErr := finalCmd.Send(ctx); failErr != nil {
		log.Error("Failed to report job failure to the broker", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  failErr.Error(),
			"worker": taskType,
		})
	}
}
