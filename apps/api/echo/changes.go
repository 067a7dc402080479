package echoapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/storage/database"
)

const ssePingInterval = 30 * time.Second

// publicTables hold rows every signed-in user may read. Students cannot follow the other tables,
// whose ids would reveal the grades, attendance or payments of other students.
var publicTables = []string{
	database.TableCourses,
	database.TableAssignments,
	database.TableExams,
	database.TableChatMessages,
	database.TableResources,
}

func isPublicTable(table string) bool {
	for _, t := range publicTables {
		if t == table {
			return true
		}
	}
	return false
}

type changesApi struct {
	notifier core.ChangeNotifier
	logger   core.Logger
}

func registerChangesAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := changesApi{notifier: deps.Notifier, logger: deps.Logger}
	g.GET("/changes", api.stream, jwt)
}

// stream pushes the change events of the requested tables as Server-Sent Events until the client leaves.
// `table` may be repeated or comma-separated; none means every table the user may follow.
func (api *changesApi) stream(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var tables []string
	for _, val := range ctx.QueryParams()["table"] {
		for _, t := range strings.Split(val, ",") {
			if t = core.CleanString(t, true /* lower */); t != "" {
				tables = append(tables, t)
			}
		}
	}
	if !claims.IsStaff() {
		if len(tables) == 0 {
			tables = publicTables
		}
		for _, t := range tables {
			if !isPublicTable(t) {
				return errHttpForbidden
			}
		}
	}

	events, unsubscribe := api.notifier.Subscribe(tables...)
	defer unsubscribe()

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil // client gone
	}
	res.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-events:
			if !ok { // notifier closed
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				api.logger.Error("encoding change event", errors.Wrap(err, "marshaling change event"))
				continue
			}
			if _, err := fmt.Fprintf(res, "event: change\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
