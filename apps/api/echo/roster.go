package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core/roster"
)

var keepAliveInterval = 30 * time.Second

type rosterApi struct {
	svc      roster.Service
	validate *validator.Validate
}

func registerRosterAPI(g *echo.Group, jwt, streamJWT echo.MiddlewareFunc, deps ServerDeps) {
	api := rosterApi{
		svc:      deps.RosterSvc,
		validate: deps.Validate,
	}
	active := activeUserMiddleware(deps.UserSvc)

	rg := g.Group("/roster")
	rg.GET("/events", api.events, streamJWT, active)

	ag := rg.Group("", jwt, active)
	ag.GET("", api.query)
	ag.GET("/days", api.days)
	ag.POST("/check", api.check)
	ag.POST("", api.create, adminMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, adminMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *rosterApi) query(ctx echo.Context) error {
	filter := new(roster.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []roster.Entry{})
	}
	entries, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	if entries == nil {
		entries = []roster.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *rosterApi) days(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, roster.Schedule())
}

// check runs the conflict check without writing anything.
func (api *rosterApi) check(ctx echo.Context) error {
	var data roster.Candidate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Candidate")
	}
	data.Hours = roster.NormalizeHours(data.Hours)

	res, err := api.svc.Check(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "checking roster conflicts")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *rosterApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding roster entry by ID")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *rosterApi) create(ctx echo.Context) error {
	var data roster.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating roster entry")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *rosterApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding roster entry by ID")
	}

	var data roster.UpdateEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err = data.Validate(orig, api.validate); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating roster entry")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *rosterApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting roster entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// events streams the roster as server-sent events: the whole roster first, then again after
// every change. A slow client only gets the latest snapshot.
func (api *rosterApi) events(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	snapshots := make(chan []roster.Entry, 1)
	unsubscribe, err := api.svc.Subscribe(reqCtx, func(entries []roster.Entry) {
		select {
		case <-snapshots: // stale
		default:
		}
		snapshots <- entries
	})
	if err != nil {
		return errors.Wrap(err, "subscribing to roster")
	}
	defer unsubscribe()

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case <-keepAlive.C:
			if _, err = fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
		case entries := <-snapshots:
			if entries == nil {
				entries = []roster.Entry{}
			}
			data, err := json.Marshal(entries)
			if err != nil {
				return errors.Wrap(err, "encoding roster snapshot")
			}
			if _, err = fmt.Fprintf(res, "event: roster\ndata: %s\n\n", data); err != nil {
				return nil
			}
		}
		res.Flush()
	}
}
