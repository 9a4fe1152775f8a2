// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package blockmatmul multiplies large matrices by splitting the product in rectangular
// blocks, each computed independently by a reduce call of a map/shuffle/reduce job.
//
// Given A (I×K) and B (K×J), the output C = A·B is divided in M = ceil(I/IB) row-blocks
// and N = ceil(J/KB) column-blocks. Each block is identified by a BlockKey (m, n):
//
//   - EmitRowBlock sends each entry of A, in row-block m, to the N blocks (m, 1..N).
//   - EmitColumnBlock sends each entry of B, in column-block n, to the M blocks (1..M, n).
//   - JoinBlock receives all entries of one block, rebuilds the dense rows of A and columns
//     of B, and computes every cell of the block, rounded half-up to 2 decimal places.
//
// The grouping of entries by BlockKey is done by a mapreduce.Engine (or any other engine
// with the same guarantees), see NewJob and Multiply.
//
// Matrices are expected to be dense: every (row, column) in range appears exactly once.
// A missing entry aborts the block (and the job), unless the Config uses the ZeroFill policy.
package blockmatmul
