// Package main provides a CLI tool for seeding the database with demo
// data: one tenant with departments, principals, work items and the
// satellite records the lifecycle engines traverse.
package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/entity"
	"workdeck/internal/core/id"
	"workdeck/internal/core/types"
	"workdeck/internal/domain/record"
	"workdeck/internal/infrastructure/storage/postgres"
	"workdeck/internal/infrastructure/storage/postgres/record_repo"
	"workdeck/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	stores := record_repo.New(txManager)

	// Seeding is attributed to the system actor, and runs in one
	// transaction: a half-seeded demo tenant is worse than none.
	ctx = appctx.WithActor(ctx, appctx.SystemActor())
	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return seedDemoTenant(ctx, stores, log)
	})
	if err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedDemoTenant(ctx context.Context, stores *record_repo.Registry, log *logger.Logger) error {
	tenantName := getEnv("TENANT_NAME", "acme")

	// Re-running the seeder against a populated database duplicates the
	// tenant name, which restore validation would later reject. Bail out
	// instead. Tenant names are globally unique, hence the nil tenant ID.
	tenants, _ := stores.Handle(entity.KindTenant)
	taken, err := tenants.CountLiveByKey(ctx, id.Nil(), tenantName, id.Nil())
	if err != nil {
		return fmt.Errorf("check tenant name: %w", err)
	}
	if taken > 0 {
		log.Infow("tenant already seeded, nothing to do", "tenant", tenantName)
		return nil
	}

	tenant := record.NewTenant(tenantName)
	if err := stores.Tenants().Create(ctx, tenant); err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	log.Infow("tenant created", "tenant_id", tenant.ID, "name", tenant.Name)

	// --- Principals ---
	adminPassword := getEnv("ADMIN_PASSWORD", "Admin123!")
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := record.NewPrincipal(tenant.ID, id.Nil(), getEnv("ADMIN_EMAIL", "admin@acme.test"), "System Admin", appctx.RoleAdmin)
	admin.PasswordHash = string(hash)
	if err := stores.Members().Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Infow("admin principal created", "email", admin.Email, "principal_id", admin.ID)

	// --- Departments ---
	fieldOps := record.NewDepartment(tenant.ID, admin.ID, "Field Operations")
	backOffice := record.NewDepartment(tenant.ID, admin.ID, "Back Office")
	for _, d := range []*record.Department{fieldOps, backOffice} {
		if err := stores.Departments().Create(ctx, d); err != nil {
			return fmt.Errorf("create department %q: %w", d.Name, err)
		}
	}

	members := []struct {
		email string
		name  string
		role  string
		dept  *id.ID
	}{
		{"lead@acme.test", "Ops Lead", appctx.RoleManager, &fieldOps.ID},
		{"tech1@acme.test", "Technician One", appctx.RoleMember, &fieldOps.ID},
		{"tech2@acme.test", "Technician Two", appctx.RoleMember, &fieldOps.ID},
		{"clerk@acme.test", "Records Clerk", appctx.RoleMember, &backOffice.ID},
	}

	principals := map[string]*record.Principal{}
	for _, m := range members {
		p := record.NewPrincipal(tenant.ID, admin.ID, m.email, m.name, m.role)
		p.PasswordHash = string(hash)
		p.DepartmentID = m.dept
		if err := stores.Members().Create(ctx, p); err != nil {
			return fmt.Errorf("create principal %q: %w", m.email, err)
		}
		principals[m.email] = p
	}

	// Manager assignment happens after the manager row exists.
	fieldOps.ManagerID = &principals["lead@acme.test"].ID
	if err := stores.Departments().Update(ctx, fieldOps); err != nil {
		return fmt.Errorf("assign department manager: %w", err)
	}

	// --- Materials and external parties ---
	pump := record.NewMaterial(tenant.ID, admin.ID, "Centrifugal pump 3kW", "pcs")
	pipe := record.NewMaterial(tenant.ID, admin.ID, "Steel pipe DN50", "m")
	sealant := record.NewMaterial(tenant.ID, admin.ID, "Thread sealant", "tube")
	for _, m := range []*record.Material{pump, pipe, sealant} {
		if err := stores.Materials().Create(ctx, m); err != nil {
			return fmt.Errorf("create material %q: %w", m.Name, err)
		}
	}

	vendor := record.NewExternalParty(tenant.ID, admin.ID, "Hydro Supplies Ltd")
	if err := stores.Parties().Create(ctx, vendor); err != nil {
		return fmt.Errorf("create external party: %w", err)
	}

	// --- Work items with consumption lines ---
	replacePump := record.NewWorkItem(tenant.ID, admin.ID, "Replace pump at station 4", record.VariantTask)
	replacePump.DepartmentID = &fieldOps.ID
	replacePump.AssigneeID = &principals["tech1@acme.test"].ID
	replacePump.AddLine(&pump.ID, &vendor.ID, types.MustDecimal("1"), types.MustDecimal("1250.00"), "replacement unit")
	replacePump.AddLine(&pipe.ID, nil, types.MustDecimal("3.5"), types.MustDecimal("18.40"), "")
	replacePump.AddLine(&sealant.ID, nil, types.MustDecimal("2"), types.MustDecimal("6.90"), "")
	if err := stores.WorkItems().Create(ctx, replacePump); err != nil {
		return fmt.Errorf("create work item: %w", err)
	}

	leakReport := record.NewWorkItem(tenant.ID, admin.ID, "Investigate leak on line B", record.VariantIncident)
	leakReport.DepartmentID = &fieldOps.ID
	leakReport.AssigneeID = &principals["tech2@acme.test"].ID
	if err := stores.WorkItems().Create(ctx, leakReport); err != nil {
		return fmt.Errorf("create work item: %w", err)
	}

	// --- Satellites ---
	note := record.NewAnnotation(tenant.ID, principals["tech1@acme.test"].ID, replacePump.ID, "old pump seized, bearing gone")
	if err := stores.Annotations().Create(ctx, note); err != nil {
		return fmt.Errorf("create annotation: %w", err)
	}

	visit := record.NewActivityRecord(tenant.ID, principals["tech1@acme.test"].ID, replacePump.ID, "site visit")
	visit.AddLine(&sealant.ID, nil, types.MustDecimal("1"))
	if err := stores.Activities().Create(ctx, visit); err != nil {
		return fmt.Errorf("create activity record: %w", err)
	}

	notice := record.NewNotice(tenant.ID, admin.ID, principals["lead@acme.test"].ID, "Pump replacement scheduled", "Station 4 will be offline on Thursday morning.")
	if err := stores.Notices().Create(ctx, notice); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}

	photo := record.NewAttachment(tenant.ID, principals["tech1@acme.test"].ID, replacePump.ID, "pump-before.jpg", "image/jpeg", "blobs/"+tenant.ID.String()+"/pump-before.jpg", 482113)
	if err := stores.Attachments().Create(ctx, photo); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}

	log.Infow("demo tenant seeded",
		"tenant_id", tenant.ID,
		"departments", 2,
		"principals", len(members)+1,
		"work_items", 2,
	)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
