package main

import (
	"log"
	"os"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	artifactsvc "github.com/trezcool/darasa/services/artifact"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

// TODO:
// - graceful shutdown on SIGTERM (server already signals on fatal errors)
// - rate limiting on auth endpoints
func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up logger
	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	crsRepo := sqlxrepos.NewCourseRepository(db)
	enrRepo := sqlxrepos.NewEnrollmentRepository(db)
	asgRepo := sqlxrepos.NewAssignmentRepository(db)
	subRepo := sqlxrepos.NewSubmissionRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc)
	crsSvc := course.NewService(crsRepo)
	enrSvc := enrollment.NewService(enrRepo, crsRepo, mailSvc)
	asgSvc := assignment.NewService(asgRepo, crsRepo)
	subSvc := submission.NewService(subRepo, asgRepo, enrRepo, usrRepo, mailSvc, logger)
	dashSvc := dashboard.NewService(crsRepo, enrRepo, asgRepo, subRepo)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Address:       core.Conf.Server.Address(),
		Logger:        logger,
		ArtifactStore: artifactsvc.NewFilesystemStore(core.Conf),
		UserSvc:       usrSvc,
		CourseSvc:     crsSvc,
		EnrollmentSvc: enrSvc,
		AssignmentSvc: asgSvc,
		SubmissionSvc: subSvc,
		DashboardSvc:  dashSvc,
	})
	app.Start()
}
