package cont

import (
	"context"

	"LiveDesk/entity"
)

type ctxKey int

const (
	tenantKey ctxKey = iota
	agentKey
)

// PutTenant stores the resolved tenant scope on the request context.
func PutTenant(ctx context.Context, tenant *entity.TenantContext) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// Tenant returns the tenant scope set by the authentication middleware,
// or nil when the request was not tenant-authenticated.
func Tenant(ctx context.Context) *entity.TenantContext {
	tenant, _ := ctx.Value(tenantKey).(*entity.TenantContext)
	return tenant
}

// PutAgent stores the resolved agent identity on the request context.
func PutAgent(ctx context.Context, agent *entity.AgentContext) context.Context {
	return context.WithValue(ctx, agentKey, agent)
}

// Agent returns the agent identity set by the authentication middleware,
// or nil when the request was not agent-authenticated.
func Agent(ctx context.Context) *entity.AgentContext {
	agent, _ := ctx.Value(agentKey).(*entity.AgentContext)
	return agent
}
