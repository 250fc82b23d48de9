package offices

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Supervising clusters (VP tier) an owning office routes through
const (
	ClusterPresident = "PO"
	ClusterAdmin     = "VAd"
	ClusterFinance   = "VF"
	ClusterResearch  = "VR"
	ClusterAcademic  = "VA"
)

// ErrUnclassifiedOffice is returned for office codes missing from the cluster table
var ErrUnclassifiedOffice = errors.New("office is not assigned to a cluster")

var knownClusters = []string{ClusterPresident, ClusterAdmin, ClusterFinance, ClusterResearch, ClusterAcademic}

// DefaultClusterMembers is the organizational chart shipped with the service.
// Deployments override it through the "clusters" config section.
func DefaultClusterMembers() map[string][]string {
	return map[string][]string{
		ClusterPresident: {"PO", "QA", "LEGAL", "IAO", "PIO"},
		ClusterAdmin:     {"VAd", "HRMO", "GSO", "SEC", "RMO"},
		ClusterFinance:   {"VF", "ACCT", "BUDGET", "CASH", "PROC"},
		ClusterResearch:  {"VR", "RDO", "EXT", "IPMO"},
		ClusterAcademic:  {"VA", "REG", "LIB", "OSA", "NSTP"},
	}
}

// ClusterMap resolves an owning office code to its supervising cluster code
type ClusterMap struct {
	byOffice map[string]string
	fallback string
}

// NewClusterMap builds a cluster map from cluster -> office codes.
// fallback may be empty, in which case unlisted offices are an error.
func NewClusterMap(members map[string][]string, fallback string) (*ClusterMap, error) {
	byOffice := make(map[string]string)
	for cluster, codes := range members {
		canonical, ok := canonicalCluster(cluster)
		if !ok {
			return nil, fmt.Errorf("unknown cluster %q", cluster)
		}
		for _, code := range codes {
			key := normalizeCode(code)
			if key == "" {
				return nil, fmt.Errorf("cluster %s has an empty office code", canonical)
			}
			if prev, dup := byOffice[key]; dup && prev != canonical {
				return nil, fmt.Errorf("office %s is listed in both %s and %s", code, prev, canonical)
			}
			byOffice[key] = canonical
		}
	}

	if fallback != "" {
		canonical, ok := canonicalCluster(fallback)
		if !ok {
			return nil, fmt.Errorf("unknown fallback cluster %q", fallback)
		}
		fallback = canonical
	}

	return &ClusterMap{byOffice: byOffice, fallback: fallback}, nil
}

// Resolve returns the cluster code for an owning office code
func (m *ClusterMap) Resolve(ownerCode string) (string, error) {
	if cluster, ok := m.byOffice[normalizeCode(ownerCode)]; ok {
		return cluster, nil
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnclassifiedOffice, ownerCode)
}

// Validate returns the codes of directory offices that have no cluster.
// The fallback cluster is ignored here so gaps are always reported.
func (m *ClusterMap) Validate(directory []Office) []string {
	var missing []string
	for _, o := range directory {
		if _, ok := m.byOffice[normalizeCode(o.Code)]; !ok {
			missing = append(missing, o.Code)
		}
	}
	sort.Strings(missing)
	return missing
}

// Fallback returns the configured catch-all cluster, if any
func (m *ClusterMap) Fallback() string {
	return m.fallback
}

func canonicalCluster(code string) (string, bool) {
	for _, c := range knownClusters {
		if strings.EqualFold(c, strings.TrimSpace(code)) {
			return c, true
		}
	}
	return "", false
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
