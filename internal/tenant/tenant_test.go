package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTenant_IsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		tenant   *Tenant
		expected bool
	}{
		{
			name:     "活跃租户",
			tenant:   &Tenant{Status: "active"},
			expected: true,
		},
		{
			name:     "暂停租户",
			tenant:   &Tenant{Status: "suspended"},
			expected: false,
		},
		{
			name:     "未过期租户",
			tenant:   &Tenant{Status: "active", ExpiredAt: &future},
			expected: true,
		},
		{
			name:     "已过期租户",
			tenant:   &Tenant{Status: "active", ExpiredAt: &past},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.tenant.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestTenant_HasFeature(t *testing.T) {
	tenant := &Tenant{
		Settings: TenantSettings{
			Features: []string{"schedule", "fairness"},
		},
	}

	if !tenant.HasFeature("schedule") {
		t.Error("应有schedule功能")
	}
	if !tenant.HasFeature("fairness") {
		t.Error("应有fairness功能")
	}
	if tenant.HasFeature("replacement") {
		t.Error("不应有replacement功能")
	}

	// 测试通配符
	tenant2 := &Tenant{
		Settings: TenantSettings{
			Features: []string{"*"},
		},
	}
	if !tenant2.HasFeature("anything") {
		t.Error("通配符应匹配任何功能")
	}
}

func TestTenantManager_RegisterAndGet(t *testing.T) {
	manager := NewTenantManager()

	tenant := &Tenant{
		ID:     uuid.New(),
		Code:   "test",
		Name:   "测试租户",
		Status: "active",
	}

	if err := manager.Register(tenant); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := manager.Get("test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Code != "test" {
		t.Errorf("Code = %s, expected test", got.Code)
	}

	if _, err := manager.Get("missing"); err != ErrTenantNotFound {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestTenantManager_Register_Invalid(t *testing.T) {
	manager := NewTenantManager()

	if err := manager.Register(nil); err != ErrInvalidTenant {
		t.Errorf("nil tenant should be invalid, got %v", err)
	}
	if err := manager.Register(&Tenant{}); err != ErrInvalidTenant {
		t.Errorf("tenant without code should be invalid, got %v", err)
	}
}

func TestTenantManager_Get_Disabled(t *testing.T) {
	manager := NewTenantManager()
	manager.Register(&Tenant{Code: "suspended", Status: "suspended"})

	if _, err := manager.Get("suspended"); err != ErrTenantDisabled {
		t.Errorf("expected ErrTenantDisabled, got %v", err)
	}
}

func TestTenantManager_GetByID(t *testing.T) {
	manager := NewTenantManager()
	tenant := CreateDefaultTenant()
	manager.Register(tenant)

	got, err := manager.GetByID(tenant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Code != "default" {
		t.Errorf("Code = %s, expected default", got.Code)
	}

	if _, err := manager.GetByID(uuid.New()); err != ErrTenantNotFound {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestTenantManager_Remove(t *testing.T) {
	manager := NewTenantManager()
	manager.Register(&Tenant{Code: "temp", Status: "active"})
	manager.Remove("temp")

	if _, err := manager.Get("temp"); err != ErrTenantNotFound {
		t.Errorf("removed tenant should not be found, got %v", err)
	}
}

func TestWithTenant_FromContext(t *testing.T) {
	tenant := CreateDefaultTenant()
	ctx := WithTenant(context.Background(), tenant)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected tenant in context")
	}
	if got.ID != tenant.ID {
		t.Error("context tenant mismatch")
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should not carry a tenant")
	}
}

func TestCreateDefaultTenant(t *testing.T) {
	tenant := CreateDefaultTenant()

	if !tenant.IsActive() {
		t.Error("default tenant should be active")
	}
	for _, feature := range []string{"schedule", "fairness", "pattern", "replacement"} {
		if !tenant.HasFeature(feature) {
			t.Errorf("default tenant should have %s feature", feature)
		}
	}
}
