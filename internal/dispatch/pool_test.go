package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchmgr/internal/config"
	"benchmgr/internal/dispatch"
)

func TestPoolPolicySizes(t *testing.T) {
	cases := []struct {
		policy dispatch.PoolPolicy
		n      int
		want   int
	}{
		{dispatch.OnePerDefinition{}, 0, 0},
		{dispatch.OnePerDefinition{}, 7, 7},
		{dispatch.Fixed(3), 10, 3},
		{dispatch.Fixed(3), 1, 3},
		{dispatch.Fixed(0), 5, 1},
		{dispatch.Fixed(3), 0, 0},
		{dispatch.Bounded(4), 10, 4},
		{dispatch.Bounded(4), 2, 2},
		{dispatch.Bounded(0), 2, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.policy.Size(tc.n), "%s with n=%d", tc.policy, tc.n)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	policy, err := dispatch.PolicyFromConfig(config.Dispatch{Pool: config.PoolPerDefinition})
	require.NoError(t, err)
	assert.Equal(t, dispatch.OnePerDefinition{}, policy)

	policy, err = dispatch.PolicyFromConfig(config.Dispatch{Pool: config.PoolFixed, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, dispatch.Fixed(4), policy)

	policy, err = dispatch.PolicyFromConfig(config.Dispatch{Pool: config.PoolBounded, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, "bounded(2)", policy.String())

	_, err = dispatch.PolicyFromConfig(config.Dispatch{Pool: config.PoolFixed})
	require.Error(t, err)
	_, err = dispatch.PolicyFromConfig(config.Dispatch{Pool: "elastic"})
	require.Error(t, err)
}
