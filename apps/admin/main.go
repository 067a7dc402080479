package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/billing"
	"github.com/trezcool/portal/core/course"
	"github.com/trezcool/portal/core/importer"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/core/user"
	emailsvc "github.com/trezcool/portal/services/email"
	logsvc "github.com/trezcool/portal/services/logger"
	"github.com/trezcool/portal/storage/database"
	sqlxrepos "github.com/trezcool/portal/storage/database/sqlx"
)

func main() {
	conf := core.Conf
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(err.Error(), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}

	// set up services
	user.LoadCommonPasswords(logger)
	validate, translator := validator.New(), core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleService(logger))
	imp := importer.New(
		usrSvc,
		student.NewService(sqlxrepos.NewStudentRepository(db), usrSvc),
		course.NewService(sqlxrepos.NewCourseRepository(db)),
		billing.NewService(sqlxrepos.NewBillingRepository(db)),
		validate,
		logger,
	)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrRepo:  usrRepo,
		importer: imp,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
