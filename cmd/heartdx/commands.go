package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/PabloGalante/heartdx/internal/app/auth"
	"github.com/PabloGalante/heartdx/internal/app/diagnosis"
	"github.com/PabloGalante/heartdx/internal/domain"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true},
		&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("HEARTDX_PASSWORD")},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and keep the session for later commands",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				if err := a.enter(ctx, routeLogin); err != nil {
					return err
				}
				u, err := do(ctx, a, "Login", "auth", "Signing in...", func(ctx context.Context) (*domain.User, error) {
					return a.auth.Login(ctx, c.String("email"), c.String("password"))
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Email, u.Role)
				return nil
			})
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "End the stored session",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				if err := a.enter(ctx, routeLogout); err != nil {
					return err
				}
				if _, err := do(ctx, a, "Logout", "auth", "Signing out...", func(ctx context.Context) (struct{}, error) {
					return struct{}{}, a.auth.Logout(ctx)
				}); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Signed out")
				return nil
			})
		},
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: append(credentialFlags(),
			&cli.StringFlag{Name: "name", Usage: "display name"},
			&cli.StringFlag{Name: "role", Value: string(domain.RolePatient), Usage: "patient or doctor"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				if err := a.enter(ctx, routeRegister); err != nil {
					return err
				}
				role := domain.Role(strings.ToLower(c.String("role")))
				if role != domain.RolePatient && role != domain.RoleDoctor {
					return a.invalid("role", "must be patient or doctor")
				}
				uid, err := do(ctx, a, "Registration", "auth", "Creating account...", func(ctx context.Context) (domain.UserID, error) {
					return a.auth.Register(ctx, c.String("email"), c.String("password"), c.String("name"), role)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Registered %s as %s (id %s)\n", c.String("email"), role, uid)
				return nil
			})
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the current session",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				if err := a.enter(ctx, routeHome); err != nil {
					return err
				}
				printState(a, a.auth.State())
				return nil
			})
		},
	}
}

func printState(a *app, st auth.State) {
	if st.Error != "" {
		fmt.Fprintf(a.out, "Session error: %s\n", st.Error)
	}
	u := st.User
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return
	}
	name := u.DisplayName
	if name == "" {
		name = "(no display name)"
	}
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\nid:   %s\n", name, u.Email, u.Role, u.ID)
	if !u.Persisted {
		fmt.Fprintln(a.out, "profile: not readable, using a minimal session")
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage your profile",
		Commands: []*cli.Command{
			{
				Name:      "set-name",
				Usage:     "Change your display name",
				ArgsUsage: "NAME",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, c, func(ctx context.Context, a *app) error {
						if err := a.enter(ctx, routeProfile); err != nil {
							return err
						}
						name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
						if name == "" {
							return a.invalid("name", "must not be empty")
						}
						if _, err := do(ctx, a, "Profile update", "profile", "Saving...", func(ctx context.Context) (struct{}, error) {
							return struct{}{}, a.auth.UpdateProfile(ctx, name)
						}); err != nil {
							return err
						}
						fmt.Fprintf(a.out, "Display name set to %q\n", name)
						return nil
					})
				},
			},
		},
	}
}

func diagnoseCommand() *cli.Command {
	return &cli.Command{
		Name:  "diagnose",
		Usage: "Score a set of symptoms",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "age", Required: true},
			&cli.StringFlag{Name: "sex", Required: true, Usage: "male | female"},
			&cli.StringFlag{Name: "chest-pain", Value: "asymptomatic", Usage: "typical | atypical | non-anginal | asymptomatic"},
			&cli.IntFlag{Name: "bp", Required: true, Usage: "resting blood pressure (mmHg)"},
			&cli.IntFlag{Name: "cholesterol", Required: true, Usage: "serum cholesterol (mg/dL)"},
			&cli.BoolFlag{Name: "fasting-bs", Usage: "fasting blood sugar above 120 mg/dL"},
			&cli.StringFlag{Name: "rest-ecg", Value: "normal", Usage: "normal | st-t-abnormality | left-ventricular-hypertrophy"},
			&cli.IntFlag{Name: "max-hr", Required: true, Usage: "maximum heart rate"},
			&cli.BoolFlag{Name: "exercise-angina"},
			&cli.FloatFlag{Name: "oldpeak", Value: 0},
			&cli.StringFlag{Name: "thallium", Value: "normal", Usage: "normal | fixed-defect | reversible-defect"},
			&cli.FloatFlag{Name: "height", Required: true, Usage: "height in meters"},
			&cli.FloatFlag{Name: "weight", Required: true, Usage: "weight in kg"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				if err := a.enter(ctx, routeDiagnose); err != nil {
					return err
				}
				in := symptomsFromFlags(c)
				res, err := do(ctx, a, "Diagnosis", "diagnosis", "Analyzing symptoms...", func(ctx context.Context) (*domain.DiagnosisResult, error) {
					return a.diag.SubmitDiagnosis(ctx, in)
				})
				if err != nil {
					return err
				}
				printResult(a, res)
				if !a.auth.IsAuthenticated() {
					fmt.Fprintln(a.out, "(not signed in: result was not saved)")
				}
				return nil
			})
		},
	}
}

func symptomsFromFlags(c *cli.Command) domain.SymptomInput {
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	fasting := 0
	if c.Bool("fasting-bs") {
		fasting = 1
	}
	return domain.SymptomInput{
		Age:            c.Int("age"),
		Sex:            strings.ToLower(c.String("sex")),
		ChestPain:      c.String("chest-pain"),
		BloodPressure:  c.Int("bp"),
		Cholesterol:    c.Int("cholesterol"),
		FastingBS:      fasting,
		RestECG:        c.String("rest-ecg"),
		MaxHeartRate:   c.Int("max-hr"),
		ExerciseAngina: yesNo(c.Bool("exercise-angina")),
		Oldpeak:        c.Float("oldpeak"),
		Thallium:       c.String("thallium"),
		HeightM:        c.Float("height"),
		WeightKg:       c.Float("weight"),
	}
}

func printResult(a *app, res *domain.DiagnosisResult) {
	fmt.Fprintf(a.out, "Result: %s\n", res.Label)
	fmt.Fprintf(a.out, "  Healthy:       %5.1f%%\n", res.Scores.Healthy*100)
	fmt.Fprintf(a.out, "  Moderate Risk: %5.1f%%\n", res.Scores.Moderate*100)
	fmt.Fprintf(a.out, "  Severe Risk:   %5.1f%%\n", res.Scores.Severe*100)
	if res.Explanation != "" {
		fmt.Fprintf(a.out, "%s\n", res.Explanation)
	}
	if res.Label == domain.LabelSevere {
		fmt.Fprintln(a.out, "Severe risk: please contact a medical professional promptly.")
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List your past diagnoses, newest first",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				if err := a.enter(ctx, routeHistory); err != nil {
					return err
				}
				if _, err := do(ctx, a, "Diagnosis history", "history", "Loading history...", func(ctx context.Context) (struct{}, error) {
					return struct{}{}, a.diag.FetchDiagnosisHistory(ctx)
				}); err != nil {
					return err
				}
				records := a.diag.History()
				if len(records) == 0 {
					fmt.Fprintln(a.out, "No diagnoses yet")
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(a.out, "%s  %-13s  age %d  %s\n",
						r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Result.Label, r.Input.Age, r.ID)
				}
				return nil
			})
		},
	}
}

func patientsCommand() *cli.Command {
	return &cli.Command{
		Name:  "patients",
		Usage: "Manage your patients",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a patient",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.IntFlag{Name: "age", Required: true},
					&cli.StringFlag{Name: "gender", Required: true, Usage: "male | female"},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "email"},
					&cli.FloatFlag{Name: "height", Required: true, Usage: "height in meters"},
					&cli.FloatFlag{Name: "weight", Required: true, Usage: "weight in kg"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, c, func(ctx context.Context, a *app) error {
						if err := a.enter(ctx, routePatients); err != nil {
							return err
						}
						if c.Float("height") <= 0 {
							return a.invalid("height", "must be greater than zero")
						}
						p, err := do(ctx, a, "Create patient", "patients", "Saving patient...", func(ctx context.Context) (*domain.Patient, error) {
							return a.diag.CreatePatient(ctx, diagnosis.CreatePatientInput{
								Name:     c.String("name"),
								Age:      c.Int("age"),
								Gender:   strings.ToLower(c.String("gender")),
								Phone:    c.String("phone"),
								Email:    c.String("email"),
								HeightM:  c.Float("height"),
								WeightKg: c.Float("weight"),
							})
						})
						if err != nil {
							return err
						}
						fmt.Fprintf(a.out, "Added %s (BMI %.1f, %s)\n", p.Name, p.BMI, domain.CategorizeBMI(p.BMI))
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List your patients, newest first",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, c, func(ctx context.Context, a *app) error {
						if err := a.enter(ctx, routePatients); err != nil {
							return err
						}
						if _, err := do(ctx, a, "Patients", "patients", "Loading patients...", func(ctx context.Context) (struct{}, error) {
							return struct{}{}, a.diag.FetchPatients(ctx)
						}); err != nil {
							return err
						}
						ps := a.diag.Patients()
						if len(ps) == 0 {
							fmt.Fprintln(a.out, "No patients yet")
							return nil
						}
						for _, p := range ps {
							fmt.Fprintf(a.out, "%-24s age %-3d BMI %4.1f  %s\n", p.Name, p.Age, p.BMI, p.ID)
						}
						return nil
					})
				},
			},
		},
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the scoring service",
		Action: func(ctx context.Context, c *cli.Command) error {
			return withApp(ctx, c, func(ctx context.Context, a *app) error {
				h, err := a.scoring.Health(ctx)
				if err != nil {
					if errors.Is(err, domain.ErrNetwork) {
						a.feedback.HandleNetworkError("Scoring service at " + a.cfg.ScoringURL)
						return a.drainErrors()
					}
					a.feedback.HandleAPIError(ctx, err, "Health check")
					return a.drainErrors()
				}
				info, err := a.scoring.ModelInfo(ctx)
				if err != nil {
					a.feedback.HandleAPIError(ctx, err, "Model info")
					return a.drainErrors()
				}
				fmt.Fprintf(a.out, "status: %s\nmodel:  %s %s (%s)\n", h.Status, info.ModelType, info.Version, info.Status)
				return nil
			})
		},
	}
}
