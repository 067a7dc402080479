package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/portal/apps/api/echo"
	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/attendance"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/coursework"
	"github.com/trezcool/portal/core/dashboard"
	"github.com/trezcool/portal/core/messaging"
	"github.com/trezcool/portal/core/resource"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
	emailsvc "github.com/trezcool/portal/services/email"
	"github.com/trezcool/portal/services/events"
	logsvc "github.com/trezcool/portal/services/logger"
	"github.com/trezcool/portal/services/throttle"
	"github.com/trezcool/portal/storage/database"
	inmemdb "github.com/trezcool/portal/storage/database/inmem"
	sqlxrepos "github.com/trezcool/portal/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Repositories are backed by Postgres, or by the in-memory store when `Database.InMemory` is set.
type Repositories struct {
	dig.Out

	Users      user.Repository
	Students   student.Repository
	Courses    course.Repository
	Coursework coursework.Repository
	Attendance attendance.Repository
	Billing    billing.Repository
	Messaging  messaging.Repository
	Resources  resource.Repository
}

// Closers releases the resources acquired while building the container, last acquired first.
type Closers struct {
	funcs []func() error
}

func (c *Closers) add(f func() error) {
	c.funcs = append(c.funcs, f)
}

func (c *Closers) Close(logger core.Logger) {
	for i := len(c.funcs) - 1; i >= 0; i-- {
		if err := c.funcs[i](); err != nil {
			logger.Error(fmt.Sprintf("closing: %v", err), err)
		}
	}
}

func newConfig() *core.Config {
	return core.Conf
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newHub(logger core.Logger, closers *Closers) (*events.Hub, core.ChangeNotifier) {
	hub := events.NewHub(logger)
	closers.add(func() error {
		hub.Close()
		return nil
	})
	return hub, hub
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam, notifier core.ChangeNotifier, closers *Closers) Repositories {
	logger := loggerParam.Logger

	if conf.Database.InMemory {
		logger.Warn("using the in-memory store: data is lost on exit")
		db := inmemdb.Open(notifier)
		return Repositories{
			Users:      inmemdb.NewUserRepository(db),
			Students:   inmemdb.NewStudentRepository(db),
			Courses:    inmemdb.NewCourseRepository(db),
			Coursework: inmemdb.NewCourseworkRepository(db),
			Attendance: inmemdb.NewAttendanceRepository(db),
			Billing:    inmemdb.NewBillingRepository(db),
			Messaging:  inmemdb.NewMessagingRepository(db),
			Resources:  inmemdb.NewResourceRepository(db),
		}
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	closers.add(db.Close)
	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// the triggers NOTIFY every write; relay them to the API's subscribers
	listener := database.NewListener(conf, notifier, logger)
	if err = listener.Start(context.Background()); err != nil {
		logger.Fatal(fmt.Sprintf("starting change listener: %v", err), err)
	}
	closers.add(listener.Close)

	return Repositories{
		Users:      sqlxrepos.NewUserRepository(db),
		Students:   sqlxrepos.NewStudentRepository(db),
		Courses:    sqlxrepos.NewCourseRepository(db),
		Coursework: sqlxrepos.NewCourseworkRepository(db),
		Attendance: sqlxrepos.NewAttendanceRepository(db),
		Billing:    sqlxrepos.NewBillingRepository(db),
		Messaging:  sqlxrepos.NewMessagingRepository(db),
		Resources:  sqlxrepos.NewResourceRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(logger)
	}
	return emailsvc.NewSendgridService(logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newLimiter(conf *core.Config, closers *Closers) throttle.Limiter {
	limiter, closeFn := throttle.New(conf)
	closers.add(closeFn)
	return limiter
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(func() *Closers { return new(Closers) }))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newHub))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newLimiter))

	must(c.Provide(user.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(coursework.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(billing.NewService))
	must(c.Provide(messaging.NewService))
	must(c.Provide(resource.NewService))
	must(c.Provide(dashboard.NewService))

	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
