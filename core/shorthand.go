package core

import (
	"github.com/gin-gonic/gin"
	"github.com/grzegorzmaniak/fieldguard/errors"
	"github.com/grzegorzmaniak/fieldguard/validation"
)

func GET[InputType any, OutputType any, BaseRoute any](
	router gin.IRoutes,
	path string,
	baseRoute BaseRoute,
	routeConfig *APIConfiguration,
	engine *validation.Engine,
	handlerFunc func(input *InputType, data *Handler[BaseRoute]) (*OutputType, *errors.AppError),
) {
	router.GET(path, func(ctx *gin.Context) {
		ExecuteRoute(ctx, baseRoute, routeConfig, engine, handlerFunc)
	})
}

func POST[InputType any, OutputType any, BaseRoute any](
	router gin.IRoutes,
	path string,
	baseRoute BaseRoute,
	routeConfig *APIConfiguration,
	engine *validation.Engine,
	handlerFunc func(input *InputType, data *Handler[BaseRoute]) (*OutputType, *errors.AppError),
) {
	router.POST(path, func(ctx *gin.Context) {
		ExecuteRoute(ctx, baseRoute, routeConfig, engine, handlerFunc)
	})
}

func DELETE[InputType any, OutputType any, BaseRoute any](
	router gin.IRoutes,
	path string,
	baseRoute BaseRoute,
	routeConfig *APIConfiguration,
	engine *validation.Engine,
	handlerFunc func(input *InputType, data *Handler[BaseRoute]) (*OutputType, *errors.AppError),
) {
	router.DELETE(path, func(ctx *gin.Context) {
		ExecuteRoute(ctx, baseRoute, routeConfig, engine, handlerFunc)
	})
}
