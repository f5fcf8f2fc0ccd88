package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grzegorzmaniak/fieldguard/errors"
	"github.com/grzegorzmaniak/fieldguard/helpers"
	"github.com/grzegorzmaniak/fieldguard/validation"
	"go.uber.org/zap"
)

// prepareHandlerData binds and validates the route input.
func prepareHandlerData[InputType any](
	ctx *gin.Context,
) (*InputType, *errors.AppError) {

	// - Input validation
	input, inputErr := validation.InputData[InputType](ctx)
	if inputErr != nil {
		zap.L().Debug("Error validating input data", zap.Error(inputErr), zap.String("requestID", helpers.RequestID(ctx)))
		return nil, inputErr
	}

	return input, nil
}

// processAndSendHandlerOutput validates the handler's output and sends the response.
// Returns an AppError if output processing fails.
func processAndSendHandlerOutput[OutputType any](
	ctx *gin.Context,
	output *OutputType,
	routeConfig *APIConfiguration,
) *errors.AppError {

	// - Processing stops here, handler is responsible for response
	if routeConfig.ManualResponse {
		zap.L().Debug("Response handling is manual for this route", zap.String("requestID", helpers.RequestID(ctx)))
		return nil
	}

	// - Output validation
	responseHeaders, responseBody, outputValErr := validation.OutputData(output)
	if outputValErr != nil {
		zap.L().Debug("Error validating output data", zap.Error(outputValErr), zap.Any("raw_output_from_handler", output))
		return outputValErr
	}

	// - Success response
	status := routeConfig.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	helpers.SuccessResponse(ctx, status, responseBody, responseHeaders)
	return nil
}

// ExecuteRoute orchestrates the request handling lifecycle: input binding and
// validation, handler execution and response generation.
func ExecuteRoute[InputType any, OutputType any, BaseRoute any](
	ctx *gin.Context,
	baseRoute BaseRoute,
	routeConfig *APIConfiguration,
	engine *validation.Engine,
	handlerFunc func(input *InputType, data *Handler[BaseRoute]) (*OutputType, *errors.AppError),
) {
	if routeConfig == nil {
		routeConfig = &APIConfiguration{}
	}

	// - Stage 1: Prepare Handler Input
	input, appErr := prepareHandlerData[InputType](ctx)
	if appErr != nil {
		helpers.ErrorResponse(ctx, appErr)
		return
	}

	// - Stage 2: Call the specific business logic handler
	output, handlerAppErr := handlerFunc(input, &Handler[BaseRoute]{
		BaseRoute: baseRoute,
		Context:   ctx,
		Engine:    engine,
		RequestID: helpers.RequestID(ctx),
	})

	if handlerAppErr != nil {
		zap.L().Debug("Error returned from route handler", zap.Error(handlerAppErr), zap.Any("input", input))
		helpers.ErrorResponse(ctx, handlerAppErr)
		return
	}

	// - Stage 3: Process Handler Output and Send Response
	if appErr = processAndSendHandlerOutput[OutputType](ctx, output, routeConfig); appErr != nil {
		helpers.ErrorResponse(ctx, appErr)
	}
}
