package lp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCbcSolution(t *testing.T) {
	program := knapsackProgram()

	t.Run("Optimal", func(t *testing.T) {
		//** Arrange
		output := "Optimal - objective value 23.00000000\n" +
			"      0 a                      1                     -10\n" +
			"      1 b                      1                     -13\n"

		//** Act
		status, values, err := parseCbcSolution(output, program)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, Optimal, status)
		assert.Equal(t, []float64{1, 1, 0}, values)
	})

	t.Run("Infeasible", func(t *testing.T) {
		status, values, err := parseCbcSolution("Infeasible - objective value 0.00000000\n", program)

		require.NoError(t, err)
		assert.Equal(t, Infeasible, status)
		assert.Nil(t, values)
	})

	t.Run("Integer infeasible", func(t *testing.T) {
		status, _, err := parseCbcSolution("Integer infeasible - objective value 0.00000000\n", program)

		require.NoError(t, err)
		assert.Equal(t, Infeasible, status)
	})

	t.Run("Stopped on time", func(t *testing.T) {
		status, _, err := parseCbcSolution("Stopped on time - objective value 17.00000000\n      0 a   1   -10\n", program)

		require.NoError(t, err)
		assert.Equal(t, Error, status)
	})

	t.Run("Unbounded", func(t *testing.T) {
		_, _, err := parseCbcSolution("Unbounded - objective value 0\n", program)

		assert.ErrorIs(t, err, ErrUnbounded)
	})

	t.Run("Unknown variable", func(t *testing.T) {
		_, _, err := parseCbcSolution("Optimal - objective value 1\n      0 q   1   0\n", program)

		assert.Error(t, err)
	})

	t.Run("Empty output", func(t *testing.T) {
		_, _, err := parseCbcSolution("\n\n", program)

		assert.Error(t, err)
	})
}
