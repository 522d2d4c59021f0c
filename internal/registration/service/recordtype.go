package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const recordTypeCacheTTL = 12 * time.Hour

// RecordTypeResolver looks up the record type IDs new accounts and
// opportunities are created under. IDs are org-specific, so they are queried
// once and cached; a missing record type is not an error, the field is
// simply omitted from the create.
type RecordTypeResolver struct {
	crm   ports.CRM
	redis *redis.Client // optional

	group singleflight.Group

	mu    sync.RWMutex
	local map[string]string
}

func NewRecordTypeResolver(crm ports.CRM, rdb *redis.Client) *RecordTypeResolver {
	return &RecordTypeResolver{
		crm:   crm,
		redis: rdb,
		local: make(map[string]string),
	}
}

// PersonAccountType returns the person account record type ID, or "" when
// the org has none.
func (r *RecordTypeResolver) PersonAccountType(ctx context.Context) string {
	return r.resolve(ctx, "recordtype:account:person",
		"SELECT Id FROM RecordType WHERE SobjectType = 'Account' AND IsPersonType = true LIMIT 1")
}

// UniversityOpportunityType returns the admission opportunity record type
// ID, or "" when it does not exist. The internal name is checked first,
// then the display label, since orgs rename one without the other.
func (r *RecordTypeResolver) UniversityOpportunityType(ctx context.Context) string {
	byDeveloperName := fmt.Sprintf(
		"SELECT Id FROM RecordType WHERE SobjectType = 'Opportunity' AND DeveloperName = %s LIMIT 1",
		salesforce.Quote(domain.OpportunityRecordType))
	byLabel := fmt.Sprintf(
		"SELECT Id FROM RecordType WHERE SobjectType = 'Opportunity' AND Name = %s LIMIT 1",
		salesforce.Quote(domain.OpportunityRecordType))
	return r.resolve(ctx, "recordtype:opportunity:university", byDeveloperName, byLabel)
}

func (r *RecordTypeResolver) resolve(ctx context.Context, key string, queries ...string) string {
	r.mu.RLock()
	id, ok := r.local[key]
	r.mu.RUnlock()
	if ok {
		return id
	}

	if r.redis != nil {
		if cached, err := r.redis.Get(ctx, key).Result(); err == nil {
			r.remember(key, cached)
			return cached
		}
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		for _, soql := range queries {
			records, err := r.crm.Query(ctx, soql)
			if err != nil {
				return "", err
			}
			if len(records) > 0 {
				return records[0].Str("Id"), nil
			}
		}
		return "", nil
	})
	if err != nil {
		// Lookup failures degrade to "no record type"; creates proceed
		// with the org default.
		return ""
	}

	id = v.(string)
	r.remember(key, id)
	if r.redis != nil {
		r.redis.Set(ctx, key, id, recordTypeCacheTTL)
	}
	return id
}

func (r *RecordTypeResolver) remember(key, id string) {
	r.mu.Lock()
	r.local[key] = id
	r.mu.Unlock()
}
