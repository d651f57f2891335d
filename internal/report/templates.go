package report

// htmlTemplate is the main HTML template for the report
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{planName .Name}} - Contention Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --bg-card: #ffffff;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --text-muted: #94a3b8;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --accent-success: #22c55e;
            --accent-warning: #f59e0b;
            --accent-error: #ef4444;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }

        [data-theme="dark"] {
            --bg-primary: #0f172a;
            --bg-secondary: #1e293b;
            --bg-card: #1e293b;
            --text-primary: #f1f5f9;
            --text-secondary: #94a3b8;
            --text-muted: #64748b;
            --border-color: #334155;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.3);
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container { max-width: 1400px; margin: 0 auto; padding: 2rem; }

        .header {
            background: var(--bg-card);
            border-radius: 12px;
            padding: 2rem;
            margin-bottom: 2rem;
            box-shadow: var(--shadow);
            display: flex;
            justify-content: space-between;
            align-items: center;
            flex-wrap: wrap;
            gap: 1rem;
        }

        .header h1 { font-size: 1.75rem; font-weight: 700; margin-bottom: 0.5rem; }
        .header .description { color: var(--text-secondary); font-size: 0.95rem; }
        .header .meta { display: flex; gap: 2rem; margin-top: 0.75rem; font-size: 0.875rem; color: var(--text-muted); }

        .status {
            display: inline-flex;
            align-items: center;
            gap: 0.5rem;
            padding: 0.75rem 1.5rem;
            border-radius: 8px;
            font-weight: 600;
        }
        .status.pass { background-color: rgba(34, 197, 94, 0.1); color: var(--accent-success); border: 1px solid rgba(34, 197, 94, 0.2); }
        .status.fail { background-color: rgba(239, 68, 68, 0.1); color: var(--accent-error); border: 1px solid rgba(239, 68, 68, 0.2); }
        .status.skip { background-color: var(--bg-secondary); color: var(--text-muted); border: 1px solid var(--border-color); }

        .theme-toggle {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 0.5rem 0.75rem;
            cursor: pointer;
            color: var(--text-secondary);
        }

        .metrics-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 1rem;
            margin-bottom: 1.5rem;
        }

        .metric-card { background: var(--bg-secondary); border-radius: 12px; padding: 1.25rem; }
        .metric-card .label { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: var(--text-muted); margin-bottom: 0.5rem; }
        .metric-card .value { font-size: 1.5rem; font-weight: 700; }
        .metric-card .unit { font-size: 0.875rem; color: var(--text-secondary); margin-left: 0.25rem; }

        .section {
            background: var(--bg-card);
            border-radius: 12px;
            padding: 1.5rem;
            margin-bottom: 2rem;
            box-shadow: var(--shadow);
        }

        .section-title {
            font-size: 1.125rem;
            font-weight: 600;
            margin-bottom: 1.5rem;
            display: flex;
            align-items: center;
            gap: 0.5rem;
        }
        .section-title::before { content: ''; width: 4px; height: 1.25rem; background: var(--accent-primary); border-radius: 2px; }
        .section-title .tag { font-size: 0.75rem; font-weight: 500; color: var(--text-secondary); background: var(--bg-secondary); padding: 0.125rem 0.5rem; border-radius: 4px; }

        .duration-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(110px, 1fr)); gap: 1rem; margin-bottom: 1.5rem; }
        .duration-item { text-align: center; padding: 1rem; background: var(--bg-secondary); border-radius: 8px; }
        .duration-item .percentile { font-size: 0.75rem; text-transform: uppercase; color: var(--text-muted); margin-bottom: 0.25rem; }
        .duration-item .time { font-size: 1.25rem; font-weight: 600; }

        .chart-wrapper { position: relative; height: 320px; }

        .stats-table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        .stats-table th, .stats-table td { padding: 0.625rem 1rem; text-align: left; border-bottom: 1px solid var(--border-color); }
        .stats-table th { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.05em; color: var(--text-muted); font-weight: 600; }
        .stats-table tr:last-child td { border-bottom: none; }
        .stats-table td.mono { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; }

        .cause { font-weight: 600; }
        .cause.success { color: var(--accent-success); }
        .cause.warning { color: var(--accent-warning); }
        .cause.error { color: var(--accent-error); }

        .run-error { color: var(--accent-error); margin-top: 1rem; font-size: 0.875rem; }

        .footer { text-align: center; padding: 2rem; color: var(--text-muted); font-size: 0.875rem; }

        @media (max-width: 768px) {
            .container { padding: 1rem; }
            .header { flex-direction: column; align-items: flex-start; }
        }

        @media print {
            .theme-toggle { display: none; }
            .section { box-shadow: none; border: 1px solid var(--border-color); }
        }
    </style>
</head>
<body>
    <div class="container">
        <header class="header">
            <div>
                <h1>{{planName .Name}}</h1>
                {{if .Description}}<p class="description">{{.Description}}</p>{{end}}
                <div class="meta">
                    <span>{{.StartTime.Format "2006-01-02 15:04:05"}}</span>
                    <span>{{formatElapsed .Duration}}</span>
                    <span>{{len .Runs}} run(s)</span>
                    {{if .RunID}}<span>{{.RunID}}</span>{{end}}
                </div>
            </div>
            <div>
                <div class="status {{if .Passed}}pass{{else}}fail{{end}}">
                    {{if .Passed}}✓ PASSED{{else}}✗ FAILED{{end}}
                </div>
                <button class="theme-toggle" onclick="toggleTheme()" title="Toggle dark mode">Theme</button>
            </div>
        </header>

        {{with .Comparison}}
        <section class="section">
            <h2 class="section-title">Process vs Thread</h2>
            <div class="metrics-grid">
                <div class="metric-card">
                    <div class="label">Wall Time Ratio</div>
                    <div class="value">{{if .Ratio}}{{printf "%.2f" .Ratio}}<span class="unit">x</span>{{else}}n/a{{end}}</div>
                </div>
                <div class="metric-card">
                    <div class="label">Values</div>
                    <div class="value">{{if .ValuesMatch}}<span class="cause success">match</span>{{else}}<span class="cause error">differ</span>{{end}}</div>
                </div>
                {{with .Process}}{{with .Result}}
                <div class="metric-card">
                    <div class="label">Process Wall Time</div>
                    <div class="value">{{formatDuration .Duration}}</div>
                </div>
                {{end}}{{end}}
                {{with .Thread}}{{with .Result}}
                <div class="metric-card">
                    <div class="label">Thread Wall Time</div>
                    <div class="value">{{formatDuration .Duration}}</div>
                </div>
                {{end}}{{end}}
            </div>
        </section>
        {{end}}

        {{if .HasUnits}}
        <section class="section">
            <h2 class="section-title">Unit Wall Times</h2>
            <div class="chart-wrapper">
                <canvas id="unitChart"></canvas>
            </div>
        </section>
        {{end}}

        {{range .Runs}}
        <section class="section">
            <h2 class="section-title">
                {{.Name}}
                <span class="tag">{{.Model}}</span>
                <span class="tag">{{.Plan.Kind}}</span>
                <span class="status {{runStatus .}}">{{runLabel .}}</span>
            </h2>
            {{if .Description}}<p class="description">{{.Description}}</p>{{end}}

            {{with .Result}}
            <div class="metrics-grid">
                <div class="metric-card">
                    <div class="label">Units</div>
                    <div class="value">{{.Created}}<span class="unit">of {{.Units}} created</span></div>
                </div>
                <div class="metric-card">
                    <div class="label">Succeeded</div>
                    <div class="value">{{.Counts.Succeeded}}</div>
                </div>
                <div class="metric-card">
                    <div class="label">Failed</div>
                    <div class="value">{{.Counts.Failed}}</div>
                </div>
                <div class="metric-card">
                    <div class="label">Wall Time</div>
                    <div class="value">{{formatDuration .Duration}}</div>
                </div>
                <div class="metric-card">
                    <div class="label">Iterations</div>
                    <div class="value">{{formatNumber .Params.Iterations}}</div>
                </div>
                {{with .Metrics}}{{if .TotalBytes}}
                <div class="metric-card">
                    <div class="label">Bytes Touched</div>
                    <div class="value">{{formatBytes .TotalBytes}}</div>
                </div>
                {{end}}{{end}}
            </div>

            {{with .Metrics}}{{if .Durations.Count}}
            <div class="duration-grid">
                <div class="duration-item"><div class="percentile">Min</div><div class="time">{{formatDuration .Durations.Min}}</div></div>
                <div class="duration-item"><div class="percentile">P50</div><div class="time">{{formatDuration .Durations.P50}}</div></div>
                <div class="duration-item"><div class="percentile">P90</div><div class="time">{{formatDuration .Durations.P90}}</div></div>
                <div class="duration-item"><div class="percentile">P95</div><div class="time">{{formatDuration .Durations.P95}}</div></div>
                <div class="duration-item"><div class="percentile">P99</div><div class="time">{{formatDuration .Durations.P99}}</div></div>
                <div class="duration-item"><div class="percentile">Max</div><div class="time">{{formatDuration .Durations.Max}}</div></div>
                <div class="duration-item"><div class="percentile">Mean</div><div class="time">{{formatDuration .Durations.Mean}}</div></div>
                <div class="duration-item"><div class="percentile">Std Dev</div><div class="time">{{formatDuration .Durations.StdDev}}</div></div>
            </div>
            {{end}}{{end}}

            <table class="stats-table">
                <thead>
                    <tr>
                        <th>Unit</th>
                        <th>PID</th>
                        <th>Outcome</th>
                        <th>Wall Time</th>
                        <th>Detail</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Outcomes}}
                    <tr>
                        <td>{{.Ordinal}}</td>
                        <td>{{if .PID}}{{.PID}}{{else}}-{{end}}</td>
                        <td><span class="cause {{causeClass .Cause}}">{{.Cause}}</span></td>
                        <td>{{if .Duration}}{{formatDuration .Duration}}{{else}}-{{end}}</td>
                        <td class="mono">{{if .Success}}{{.Detail}}{{else}}{{.Error}}{{end}}</td>
                    </tr>
                    {{end}}
                    {{if .Dropped}}
                    <tr>
                        <td colspan="5"><span class="cause warning">{{.Dropped}} unit(s) not created after the spawn failure</span></td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
            {{end}}

            {{if .Error}}<p class="run-error">Error: {{.Error}}</p>{{end}}
        </section>
        {{end}}

        <footer class="footer">
            <p>Generated by contend • {{.EndTime.Format "2006-01-02 15:04:05 MST"}}</p>
        </footer>
    </div>

    <script>
        function toggleTheme() {
            const html = document.documentElement;
            const newTheme = html.getAttribute('data-theme') === 'dark' ? 'light' : 'dark';
            html.setAttribute('data-theme', newTheme);
            localStorage.setItem('theme', newTheme);
            updateChartColors();
        }

        document.documentElement.setAttribute('data-theme', localStorage.getItem('theme') || 'light');

        function getChartColors() {
            const isDark = document.documentElement.getAttribute('data-theme') === 'dark';
            return {
                text: isDark ? '#f1f5f9' : '#1e293b',
                grid: isDark ? '#334155' : '#e2e8f0',
                series: ['#3b82f6', '#8b5cf6', '#22c55e', '#f59e0b', '#ec4899', '#14b8a6'],
                error: '#ef4444',
            };
        }

        // One entry per unit outcome, durations in milliseconds.
        const unitData = {{.UnitsJSON}};

        let unitChart;

        function createUnitChart() {
            const colors = getChartColors();
            const runs = [...new Set(unitData.map(d => d.run))];
            const maxOrdinal = Math.max(...unitData.map(d => d.ordinal));
            const labels = Array.from({length: maxOrdinal + 1}, (_, i) => 'unit ' + i);

            const datasets = runs.map((run, i) => {
                const points = unitData.filter(d => d.run === run);
                const data = labels.map((_, ordinal) => {
                    const p = points.find(d => d.ordinal === ordinal);
                    return p ? p.durationMs : null;
                });
                const bg = labels.map((_, ordinal) => {
                    const p = points.find(d => d.ordinal === ordinal);
                    return p && p.cause !== 'success' ? colors.error : colors.series[i % colors.series.length];
                });
                return { label: run, data: data, backgroundColor: bg, borderWidth: 0 };
            });

            unitChart = new Chart(document.getElementById('unitChart').getContext('2d'), {
                type: 'bar',
                data: { labels: labels, datasets: datasets },
                options: {
                    responsive: true,
                    maintainAspectRatio: false,
                    plugins: { legend: { labels: { color: colors.text } } },
                    scales: {
                        x: { ticks: { color: colors.text }, grid: { color: colors.grid } },
                        y: {
                            beginAtZero: true,
                            ticks: { color: colors.text },
                            grid: { color: colors.grid },
                            title: { display: true, text: 'Wall time (ms)', color: colors.text },
                        },
                    },
                },
            });
        }

        function updateChartColors() {
            if (!unitChart) {
                return;
            }
            const colors = getChartColors();
            unitChart.options.plugins.legend.labels.color = colors.text;
            unitChart.options.scales.x.ticks.color = colors.text;
            unitChart.options.scales.x.grid.color = colors.grid;
            unitChart.options.scales.y.ticks.color = colors.text;
            unitChart.options.scales.y.grid.color = colors.grid;
            unitChart.options.scales.y.title.color = colors.text;
            unitChart.update();
        }

        document.addEventListener('DOMContentLoaded', function() {
            if (unitData && unitData.length > 0 && document.getElementById('unitChart')) {
                createUnitChart();
            }
        });
    </script>
</body>
</html>`
